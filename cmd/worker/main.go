package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nodebridge/internal/config"
	"nodebridge/internal/domain/dialog360"
	"nodebridge/internal/domain/execution"
	"nodebridge/internal/infra/queue"
	"nodebridge/internal/infra/ratelimit"
	"nodebridge/internal/infra/store"
	"nodebridge/internal/nodes"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("worker configuration loaded")

	if cfg.Supabase.URL == "" {
		slog.Error("supabase is not configured, the worker has nothing to process")
		os.Exit(1)
	}

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Recipient Rate Limiter
	var limiter dialog360.RecipientRateLimiter
	if cfg.RecipientRateLimit.MaxPerHour > 0 {
		recipientLimiter := ratelimit.NewRedisRecipientLimiter(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.RecipientRateLimit.MaxPerHour,
		)
		defer recipientLimiter.Close()
		limiter = recipientLimiter
	}

	// Node Registry
	registry, err := nodes.NewRegistry(cfg, limiter)
	if err != nil {
		slog.Error("failed to initialize nodes", "error", err)
		os.Exit(1)
	}

	// Supabase Store
	execStore, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("failed to initialize supabase store", "error", err)
		os.Exit(1)
	}
	slog.Info("supabase store initialized")

	// Execution Worker
	execWorker := execution.NewWorker(execStore, registry)

	// Asynq Client (for reaper re-enqueuing)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()

	enqueuer := queue.NewEnqueuer(asynqClient)

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(execution.TaskTypeRunExecution, func(ctx context.Context, task *asynq.Task) error {
		payload, err := execution.ParseRunExecutionPayload(task.Payload())
		if err != nil {
			return err
		}
		return execWorker.ProcessTask(ctx, payload.ExecutionID)
	})

	// Start the asynq worker in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"redis", cfg.Redis.Address,
			"nodes", registry.Names(),
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Stale Execution Reaper
	// ==========================================

	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()

	reaper := execution.NewReaper(execStore, enqueuer, execution.ReaperConfig{
		Interval:       time.Duration(cfg.Reaper.IntervalSec) * time.Second,
		StaleThreshold: time.Duration(cfg.Reaper.StaleThresholdSec) * time.Second,
		BatchSize:      cfg.Reaper.BatchSize,
	})

	go reaper.Run(reaperCtx)

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	reaperCancel() // Stop the reaper first
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
}
