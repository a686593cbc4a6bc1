package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Worker runs queued executions picked up from the queue.
// It fetches the log, runs the batch, and persists the output and final status.
// Every failure is returned wrapped in asynq.SkipRetry: a partially run batch
// may already have sent messages, so nothing is retried automatically.
type Worker struct {
	store    ExecutionStore
	registry *Registry
}

// NewWorker creates a new execution worker.
func NewWorker(store ExecutionStore, registry *Registry) *Worker {
	return &Worker{
		store:    store,
		registry: registry,
	}
}

// ProcessTask handles a run execution task from the queue.
func (w *Worker) ProcessTask(ctx context.Context, executionID string) error {
	start := time.Now()

	execLog, err := w.store.GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("fetching execution %s: %w", executionID, err)
	}

	if execLog == nil {
		slog.Error("execution not found", "execution_id", executionID)
		return fmt.Errorf("execution not found: %s: %w", executionID, asynq.SkipRetry)
	}

	// A duplicate delivery must not run the batch twice.
	if execLog.Status != StatusQueued {
		slog.Warn("skipping execution that is no longer queued",
			"execution_id", executionID,
			"status", execLog.Status,
		)
		return nil
	}

	if err := w.store.UpdateStatus(ctx, executionID, StatusProcessing, ""); err != nil {
		slog.Error("failed to update status to processing", "execution_id", executionID, "error", err)
	}

	items, err := w.registry.Run(ctx, execLog.Request())
	if err != nil {
		if saveErr := w.store.SaveResult(ctx, executionID, StatusFailed, nil, err.Error()); saveErr != nil {
			slog.Error("failed to record execution failure", "execution_id", executionID, "error", saveErr)
		}

		slog.Error("execution failed",
			"execution_id", executionID,
			"node", execLog.Node,
			"resource", execLog.Resource,
			"operation", execLog.Operation,
			"error", err,
			"duration", time.Since(start),
		)
		return fmt.Errorf("running execution %s: %w: %w", executionID, err, asynq.SkipRetry)
	}

	if err := w.store.SaveResult(ctx, executionID, StatusSucceeded, items, ""); err != nil {
		slog.Error("failed to store execution output", "execution_id", executionID, "error", err)
	}

	slog.Info("execution succeeded",
		"execution_id", executionID,
		"node", execLog.Node,
		"resource", execLog.Resource,
		"operation", execLog.Operation,
		"items_out", len(items),
		"duration", time.Since(start),
	)

	return nil
}
