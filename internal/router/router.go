package router

import (
	"context"
	"net/http"
	"time"

	"nodebridge/internal/common"
	"nodebridge/internal/config"
	"nodebridge/internal/domain/execution"
	"nodebridge/internal/middleware"

	"github.com/gin-gonic/gin"
)

// New creates and configures the Gin router with all middleware and routes.
// Background upkeep (rate limiter eviction) stops when ctx is cancelled.
func New(
	ctx context.Context,
	cfg *config.Config,
	executionHandler *execution.Handler,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// Global middleware stack (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	// Rate limiter
	idleTTL := time.Duration(cfg.RateLimit.IdleTTLSec) * time.Second
	rateLimiter := middleware.NewRateLimiter(
		cfg.RateLimit.RequestsPerSecond,
		cfg.RateLimit.Burst,
		idleTTL,
	)
	go rateLimiter.RunSweeper(ctx, idleTTL/2)
	r.Use(rateLimiter.Middleware())

	// Public routes
	r.GET("/health", healthCheck)

	// Protected API routes (API key required)
	protectedAPI := r.Group("/api/v1")
	protectedAPI.Use(middleware.Auth(cfg.Auth.APIKeys))
	{
		executionHandler.RegisterRoutes(protectedAPI)
	}

	return r
}

// healthCheck handles GET /health
func healthCheck(c *gin.Context) {
	common.Success(c, http.StatusOK, gin.H{
		"status":  "ok",
		"service": "nodebridge",
	})
}
