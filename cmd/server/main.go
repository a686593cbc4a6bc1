package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
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
	"nodebridge/internal/router"
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

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

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
		slog.Info("recipient rate limiter initialized", "max_per_hour", cfg.RecipientRateLimit.MaxPerHour)
	}

	// Node Registry
	registry, err := nodes.NewRegistry(cfg, limiter)
	if err != nil {
		slog.Error("failed to initialize nodes", "error", err)
		os.Exit(1)
	}
	slog.Info("nodes registered", "nodes", registry.Names())

	// Supabase Store + Asynq Client (queued executions only)
	var (
		execStore execution.ExecutionStore
		enqueuer  execution.Enqueuer
	)
	if cfg.Supabase.URL != "" {
		supabaseStore, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			slog.Error("failed to initialize supabase store", "error", err)
			os.Exit(1)
		}
		execStore = supabaseStore
		slog.Info("supabase store initialized")

		asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		defer asynqClient.Close()
		enqueuer = queue.NewEnqueuer(asynqClient)
		slog.Info("asynq client initialized", "redis", cfg.Redis.Address)
	} else {
		slog.Warn("supabase is not configured, queued executions are disabled")
	}

	// Service
	executionService := execution.NewService(registry, execStore, enqueuer)

	// Handler
	executionHandler := execution.NewHandler(executionService)

	// Router
	routerCtx, routerCancel := context.WithCancel(context.Background())
	defer routerCancel()
	r := router.New(routerCtx, cfg, executionHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPClient.Timeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	routerCancel()

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
