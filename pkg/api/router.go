// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/sagaflow/sagaflow/config"
	"github.com/sagaflow/sagaflow/pkg/api/handlers"
	"github.com/sagaflow/sagaflow/pkg/api/middleware"
	"github.com/sagaflow/sagaflow/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Saga handles saga lifecycle endpoints
	Saga *handlers.SagaHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// Events handles the websocket event stream
	Events *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	// Register global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))

	// Add metrics middleware if provided
	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))

	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		}))
	}

	r.Use(middleware.Timeout(cfg.Server.HTTP.ReadTimeout))

	// Register routes
	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if handlers.Saga != nil {
			r.Route("/sagas", func(r chi.Router) {
				r.Post("/", handlers.Saga.StartSaga)
				r.Get("/stats", handlers.Saga.GetStats)
				r.Get("/{id}", handlers.Saga.GetSaga)
				r.Post("/{id}/cancel", handlers.Saga.CancelSaga)
				r.Post("/{id}/retry", handlers.Saga.RetrySaga)
				r.Post("/{id}/resume", handlers.Saga.ResumeSaga)
			})
			r.Get("/definitions", handlers.Saga.ListDefinitions)
		}

		if handlers.Events != nil {
			r.Get("/events/ws", handlers.Events.ServeHTTP)
		}
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}
}
