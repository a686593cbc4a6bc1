package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nodebridge/internal/common"
)

// Enqueuer defines the contract for enqueuing execution tasks.
// This allows the service to be decoupled from the specific queue implementation.
type Enqueuer interface {
	EnqueueRunExecution(executionID string) error
}

// Service orchestrates node executions.
// Synchronous flow: resolve node → run batch → return items.
// Async flow: check idempotency → create log → enqueue.
type Service struct {
	registry *Registry
	store    ExecutionStore
	enqueuer Enqueuer
}

// NewService creates a new execution service. store and enqueuer may be nil,
// in which case only synchronous executions are available.
func NewService(registry *Registry, store ExecutionStore, enqueuer Enqueuer) *Service {
	return &Service{
		registry: registry,
		store:    store,
		enqueuer: enqueuer,
	}
}

// Execute runs the request synchronously and returns the output items.
func (s *Service) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()

	items, err := s.registry.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	slog.Info("execution finished",
		"node", req.Node,
		"resource", req.Resource,
		"operation", req.Operation,
		"items_in", len(req.Items),
		"items_out", len(items),
		"duration", time.Since(start),
	)

	return &ExecuteResponse{
		Node:      req.Node,
		Resource:  req.Resource,
		Operation: req.Operation,
		Items:     items,
	}, nil
}

// Enqueue validates an execution request, checks idempotency, creates a log
// record, and enqueues the task for async processing.
func (s *Service) Enqueue(ctx context.Context, req *ExecuteRequest) (*EnqueueResponse, error) {
	if s.store == nil || s.enqueuer == nil {
		return nil, common.NewValidationError("queued executions are not enabled")
	}

	if _, err := s.registry.Get(req.Node); err != nil {
		return nil, err
	}

	if !req.Credentials.IsZero() {
		return nil, common.NewValidationError("inline credentials are not accepted for queued executions")
	}

	// A request with a known idempotency key returns the existing execution
	if req.IdempotencyKey != "" {
		existing, err := s.store.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			slog.Error("idempotency check failed", "key", req.IdempotencyKey, "error", err)
		}
		if existing != nil {
			slog.Info("idempotent request, returning existing execution",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.ID,
				"existing_status", existing.Status,
			)
			return &EnqueueResponse{
				ID:             existing.ID,
				IdempotencyKey: existing.IdempotencyKey,
				Node:           existing.Node,
				Status:         string(existing.Status),
			}, nil
		}
	}

	execLog := &ExecutionLog{
		IdempotencyKey: req.IdempotencyKey,
		Node:           req.Node,
		Resource:       req.Resource,
		Operation:      req.Operation,
		Items:          req.Items,
		ContinueOnFail: req.ContinueOnFail,
		Parallelism:    req.Parallelism,
		Status:         StatusQueued,
	}

	if err := s.store.Create(ctx, execLog); err != nil {
		return nil, fmt.Errorf("creating execution log: %w", err)
	}

	if err := s.enqueuer.EnqueueRunExecution(execLog.ID); err != nil {
		_ = s.store.UpdateStatus(ctx, execLog.ID, StatusFailed, "failed to enqueue: "+err.Error())
		return nil, fmt.Errorf("enqueuing execution: %w", err)
	}

	slog.Info("execution enqueued",
		"id", execLog.ID,
		"node", req.Node,
		"resource", req.Resource,
		"operation", req.Operation,
		"items", len(req.Items),
	)

	return &EnqueueResponse{
		ID:             execLog.ID,
		IdempotencyKey: execLog.IdempotencyKey,
		Node:           req.Node,
		Status:         string(StatusQueued),
	}, nil
}

// GetExecution retrieves an execution log by ID.
func (s *Service) GetExecution(ctx context.Context, id string) (*ExecutionLog, error) {
	if s.store == nil {
		return nil, common.NewNotFoundError("execution", id)
	}
	execLog, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching execution: %w", err)
	}
	if execLog == nil {
		return nil, common.NewNotFoundError("execution", id)
	}
	return execLog, nil
}

// ListExecutions retrieves execution logs with pagination and filtering.
func (s *Service) ListExecutions(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	filter.Normalize()

	if s.store == nil {
		return &ListResponse{Executions: []*ExecutionLog{}, Page: filter.Page, PageSize: filter.PageSize}, nil
	}

	logs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing executions: %w", err)
	}

	return &ListResponse{
		Executions: logs,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// LoadOptions returns dropdown options from the named node.
func (s *Service) LoadOptions(ctx context.Context, node, method string, req *OptionsRequest) ([]Option, error) {
	options, err := s.registry.LoadOptions(ctx, node, method, req.Credentials, req.Parameters)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = []Option{}
	}
	return options, nil
}

// Nodes lists the registered node names.
func (s *Service) Nodes() []string {
	return s.registry.Names()
}
