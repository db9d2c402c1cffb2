package handlers

import (
	"net/http"
	"time"

	"github.com/sagaflow/sagaflow/pkg/api/response"
	"github.com/sagaflow/sagaflow/pkg/kv"
	"github.com/sagaflow/sagaflow/pkg/saga"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	orchestrator *saga.Orchestrator
	store        kv.Store
	version      string
	startTime    time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(orchestrator *saga.Orchestrator, store kv.Store, version string) *HealthHandler {
	return &HealthHandler{
		orchestrator: orchestrator,
		store:        store,
		version:      version,
		startTime:    time.Now(),
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe).
// The server is ready once the orchestrator is wired and the execution
// store answers reads.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]bool{
			"ready": false,
		})
		return
	}

	if h.store != nil {
		_, err := h.store.Get(r.Context(), "health:probe")
		if err != nil && !kv.IsNotFound(err) {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"ready": false,
				"error": err.Error(),
			})
			return
		}
	}

	response.JSON(w, http.StatusOK, map[string]bool{
		"ready": true,
	})
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
	}
	if h.orchestrator != nil {
		status["sagas"] = h.orchestrator.GetStatistics()
	}
	response.JSON(w, http.StatusOK, status)
}
