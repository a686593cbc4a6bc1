package queue

import (
	"errors"
	"fmt"

	"nodebridge/internal/domain/execution"

	"github.com/hibiken/asynq"
)

// ExecutionsQueue is the queue queued executions are processed from.
const ExecutionsQueue = "executions"

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
}

// NewServer creates a new asynq server connected to Redis.
func NewServer(redisAddr, password string, db int, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				ExecutionsQueue: 10, // priority weight
				"default":       1,
			},
		},
	)
}

// Enqueuer adapts an asynq client to execution.Enqueuer.
type Enqueuer struct {
	client *asynq.Client
}

var _ execution.Enqueuer = (*Enqueuer)(nil)

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueRunExecution implements execution.Enqueuer.
func (e *Enqueuer) EnqueueRunExecution(executionID string) error {
	return EnqueueRunExecution(e.client, executionID)
}

// EnqueueRunExecution enqueues a run execution task. Tasks are deduplicated on
// the execution ID and never retried, so a side-effecting batch runs at most once.
func EnqueueRunExecution(client *asynq.Client, executionID string) error {
	task, err := execution.NewRunExecutionTask(executionID)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	_, err = client.Enqueue(task,
		asynq.MaxRetry(0),
		asynq.TaskID(executionID),
		asynq.Queue(ExecutionsQueue),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueuing task: %w", err)
	}

	return nil
}
