package execution

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeRunExecution is the asynq task type for running a queued execution.
const TaskTypeRunExecution = "execution:run"

// RunExecutionPayload is the serialized payload for a run execution task.
type RunExecutionPayload struct {
	ExecutionID string `json:"execution_id"`
}

// NewRunExecutionTask creates a new asynq task for running an execution.
func NewRunExecutionTask(executionID string) (*asynq.Task, error) {
	payload, err := json.Marshal(RunExecutionPayload{ExecutionID: executionID})
	if err != nil {
		return nil, fmt.Errorf("marshaling task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeRunExecution, payload), nil
}

// ParseRunExecutionPayload deserializes the task payload.
func ParseRunExecutionPayload(data []byte) (*RunExecutionPayload, error) {
	var p RunExecutionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling task payload: %w", err)
	}
	if p.ExecutionID == "" {
		return nil, fmt.Errorf("task payload has no execution_id")
	}
	return &p, nil
}
