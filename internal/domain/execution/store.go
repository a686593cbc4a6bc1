package execution

import (
	"context"
	"time"
)

// ExecutionStore defines the contract for persisting queued executions.
// Implementations live in infra/store/ (e.g., Supabase).
type ExecutionStore interface {
	// Create inserts a new execution log and fills in its ID and timestamps.
	Create(ctx context.Context, log *ExecutionLog) error

	// GetByID retrieves an execution log by its ID.
	// Returns nil, nil if no record is found.
	GetByID(ctx context.Context, id string) (*ExecutionLog, error)

	// GetByIdempotencyKey retrieves an execution log by its idempotency key.
	// Returns nil, nil if no record is found.
	GetByIdempotencyKey(ctx context.Context, key string) (*ExecutionLog, error)

	// UpdateStatus moves an execution to a new status.
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error

	// SaveResult stores the output of a finished execution together with its final status.
	SaveResult(ctx context.Context, id string, status Status, output []Item, errMsg string) error

	// List retrieves execution logs with pagination and filtering.
	List(ctx context.Context, filter ListFilter) ([]*ExecutionLog, int, error)

	// ListStale retrieves executions still queued and untouched since olderThan.
	// Used by the reaper for reconciliation.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*ExecutionLog, error)
}
