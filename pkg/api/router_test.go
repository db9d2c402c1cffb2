package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sagaflow/sagaflow/config"
	"github.com/sagaflow/sagaflow/pkg/api/handlers"
	"github.com/sagaflow/sagaflow/pkg/kv/memory"
	"github.com/sagaflow/sagaflow/pkg/logger"
	"github.com/sagaflow/sagaflow/pkg/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.CORS.Enabled = false
	return cfg
}

func testAPILogger() logger.Logger {
	return logger.New(&logger.Config{
		Level:  logger.ErrorLevel,
		Format: "json",
		Output: "stdout",
	})
}

// createTestHandlers wires handlers around an in-memory orchestrator.
func createTestHandlers(t *testing.T) *Handlers {
	t.Helper()

	store := memory.New()
	orchestrator := saga.NewOrchestrator(store)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = orchestrator.Shutdown(ctx)
	})

	def, err := saga.NewDefinition("orders", "Order Processing").
		Step("reserve", "Reserve Inventory",
			func(ctx context.Context, sagaCtx *saga.Context) (any, error) {
				return "reserved", nil
			},
			saga.NoopCompensate).
		Build()
	require.NoError(t, err)
	require.NoError(t, orchestrator.RegisterSaga(def))

	log := testAPILogger()
	return &Handlers{
		Saga:   handlers.NewSagaHandler(orchestrator, log),
		Health: handlers.NewHealthHandler(orchestrator, store, "test"),
		Events: handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{}),
	}
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(testConfig(), testAPILogger(), createTestHandlers(t))
	require.NotNil(t, router)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SagaLifecycle(t *testing.T) {
	router := NewRouter(testConfig(), testAPILogger(), createTestHandlers(t))

	body, _ := json.Marshal(map[string]any{"definition_id": "orders"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sagas", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var started struct {
		SagaID string `json:"saga_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.SagaID)

	deadline := time.Now().Add(5 * time.Second)
	for {
		req = httptest.NewRequest(http.MethodGet, "/api/v1/sagas/"+started.SagaID, nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var status struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		if status.Status == string(saga.StatusCompleted) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("saga never completed, last status %q", status.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := NewRouter(testConfig(), testAPILogger(), createTestHandlers(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := NewRouter(testConfig(), testAPILogger(), createTestHandlers(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerSecond = 1
	cfg.Server.RateLimit.Burst = 1

	router := NewRouter(cfg, testAPILogger(), createTestHandlers(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
