package execution

import (
	"context"
	"log/slog"
	"time"
)

// ReaperConfig holds configuration for the stale execution reaper.
type ReaperConfig struct {
	// Interval is how often the reaper scans for stale executions.
	Interval time.Duration

	// StaleThreshold is how long an execution can stay queued
	// before the reaper considers its task lost and re-enqueues it.
	StaleThreshold time.Duration

	// BatchSize is the maximum number of stale executions to recover per cycle.
	BatchSize int
}

// Reaper periodically scans the execution store for queued executions whose
// task never reached a worker (e.g. Redis was flushed) and re-enqueues them.
// The store is the source of truth and the reaper reconciles the queue with it.
//
// Executions stuck in processing are left alone: they may already have sent
// messages, and re-running them would send duplicates.
type Reaper struct {
	store    ExecutionStore
	enqueuer Enqueuer
	config   ReaperConfig
}

// NewReaper creates a new stale execution reaper.
func NewReaper(store ExecutionStore, enqueuer Enqueuer, cfg ReaperConfig) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = 10 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	return &Reaper{
		store:    store,
		enqueuer: enqueuer,
		config:   cfg,
	}
}

// Run starts the reaper loop. It blocks until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	slog.Info("reaper started",
		"interval", r.config.Interval,
		"stale_threshold", r.config.StaleThreshold,
		"batch_size", r.config.BatchSize,
	)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs one reaper cycle and returns how many executions were re-enqueued.
func (r *Reaper) Sweep(ctx context.Context) int {
	olderThan := time.Now().Add(-r.config.StaleThreshold)

	stale, err := r.store.ListStale(ctx, olderThan, r.config.BatchSize)
	if err != nil {
		slog.Error("reaper: failed to list stale executions", "error", err)
		return 0
	}

	if len(stale) == 0 {
		return 0
	}

	slog.Warn("reaper: found stale executions", "count", len(stale))

	recovered := 0
	for _, execLog := range stale {
		// Touch the record so the next sweep does not pick it up again immediately.
		if err := r.store.UpdateStatus(ctx, execLog.ID, StatusQueued, ""); err != nil {
			slog.Error("reaper: failed to refresh execution",
				"execution_id", execLog.ID,
				"error", err,
			)
			continue
		}

		if err := r.enqueuer.EnqueueRunExecution(execLog.ID); err != nil {
			slog.Error("reaper: failed to re-enqueue execution",
				"execution_id", execLog.ID,
				"error", err,
			)
			continue
		}

		recovered++
		slog.Info("reaper: recovered stale execution",
			"execution_id", execLog.ID,
			"node", execLog.Node,
			"age", time.Since(execLog.UpdatedAt).Round(time.Second),
		)
	}

	if recovered > 0 {
		slog.Info("reaper: sweep complete", "recovered", recovered, "total_stale", len(stale))
	}
	return recovered
}
