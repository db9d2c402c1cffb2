package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sagaflow/sagaflow/pkg/kv/memory"
	"github.com/sagaflow/sagaflow/pkg/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(nil, nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_Ready(t *testing.T) {
	store := memory.New()
	orchestrator := saga.NewOrchestrator(store)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = orchestrator.Shutdown(ctx)
	})

	handler := NewHealthHandler(orchestrator, store, "test")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	handler.Ready(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_Ready_NoOrchestrator(t *testing.T) {
	handler := NewHealthHandler(nil, nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	handler.Ready(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthHandler_Status(t *testing.T) {
	store := memory.New()
	orchestrator := saga.NewOrchestrator(store)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = orchestrator.Shutdown(ctx)
	})

	handler := NewHealthHandler(orchestrator, store, "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1.2.3", resp["version"])
	assert.Contains(t, resp, "sagas")
}
