// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sagaflow/sagaflow/pkg/api/middleware"
	"github.com/sagaflow/sagaflow/pkg/api/models"
	"github.com/sagaflow/sagaflow/pkg/api/response"
	"github.com/sagaflow/sagaflow/pkg/logger"
	"github.com/sagaflow/sagaflow/pkg/saga"
)

// SagaHandler handles saga API endpoints.
type SagaHandler struct {
	orchestrator *saga.Orchestrator
	logger       logger.Logger
	validator    *validator.Validate
}

// NewSagaHandler creates a saga handler.
func NewSagaHandler(orchestrator *saga.Orchestrator, log logger.Logger) *SagaHandler {
	return &SagaHandler{
		orchestrator: orchestrator,
		logger:       log,
		validator:    validator.New(),
	}
}

// StartSaga handles POST /api/v1/sagas.
func (h *SagaHandler) StartSaga(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "saga orchestrator unavailable", getRequestID(r.Context()))
		return
	}

	var req models.SagaStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(r.Context()))
		return
	}

	sagaID, err := h.orchestrator.StartSaga(r.Context(), req.DefinitionID, req.Input, saga.StartOptions{
		TenantID:      req.TenantID,
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Metadata:      req.Metadata,
	})
	if err != nil {
		var notFound *saga.NotFoundError
		if errors.As(err, &notFound) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, err.Error(), getRequestID(r.Context()))
			return
		}
		var fault *saga.OrchestratorFault
		if errors.As(err, &fault) {
			response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, err.Error(), getRequestID(r.Context()))
			return
		}
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, err.Error(), getRequestID(r.Context()))
		return
	}

	response.JSON(w, http.StatusAccepted, models.SagaStartResponse{
		SagaID:       sagaID,
		DefinitionID: req.DefinitionID,
		Status:       string(saga.StatusRunning),
		CreatedAt:    time.Now().UTC(),
	})
}

// GetSaga handles GET /api/v1/sagas/{id}.
func (h *SagaHandler) GetSaga(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "saga orchestrator unavailable", getRequestID(r.Context()))
		return
	}

	sagaID := chi.URLParam(r, "id")
	if sagaID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "saga id is required", getRequestID(r.Context()))
		return
	}

	execution, err := h.orchestrator.GetStatus(r.Context(), sagaID)
	if err != nil {
		var notFound *saga.NotFoundError
		if errors.As(err, &notFound) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "saga not found", getRequestID(r.Context()))
			return
		}
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, err.Error(), getRequestID(r.Context()))
		return
	}

	response.JSON(w, http.StatusOK, executionToStatus(execution))
}

// CancelSaga handles POST /api/v1/sagas/{id}/cancel.
func (h *SagaHandler) CancelSaga(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "saga orchestrator unavailable", getRequestID(r.Context()))
		return
	}

	sagaID := chi.URLParam(r, "id")
	if sagaID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "saga id is required", getRequestID(r.Context()))
		return
	}

	accepted := h.orchestrator.CancelSaga(sagaID)
	if !accepted {
		response.Error(w, http.StatusConflict, response.ErrCodeConflict, "saga is not running", getRequestID(r.Context()))
		return
	}

	response.JSON(w, http.StatusAccepted, models.SagaActionResponse{
		SagaID:   sagaID,
		Accepted: true,
	})
}

// RetrySaga handles POST /api/v1/sagas/{id}/retry.
func (h *SagaHandler) RetrySaga(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "saga orchestrator unavailable", getRequestID(r.Context()))
		return
	}

	sagaID := chi.URLParam(r, "id")
	if sagaID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "saga id is required", getRequestID(r.Context()))
		return
	}

	accepted := h.orchestrator.RetrySaga(r.Context(), sagaID)
	if !accepted {
		response.Error(w, http.StatusConflict, response.ErrCodeConflict, "saga is not in a retriable state", getRequestID(r.Context()))
		return
	}

	response.JSON(w, http.StatusAccepted, models.SagaActionResponse{
		SagaID:   sagaID,
		Accepted: true,
		Status:   string(saga.StatusRunning),
	})
}

// ResumeSaga handles POST /api/v1/sagas/{id}/resume.
func (h *SagaHandler) ResumeSaga(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "saga orchestrator unavailable", getRequestID(r.Context()))
		return
	}

	sagaID := chi.URLParam(r, "id")
	if sagaID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "saga id is required", getRequestID(r.Context()))
		return
	}

	if err := h.orchestrator.ResumeSaga(r.Context(), sagaID); err != nil {
		var notFound *saga.NotFoundError
		if errors.As(err, &notFound) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "saga not found", getRequestID(r.Context()))
			return
		}
		response.Error(w, http.StatusConflict, response.ErrCodeConflict, err.Error(), getRequestID(r.Context()))
		return
	}

	response.JSON(w, http.StatusAccepted, models.SagaActionResponse{
		SagaID:   sagaID,
		Accepted: true,
	})
}

// GetStats handles GET /api/v1/sagas/stats.
func (h *SagaHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "saga orchestrator unavailable", getRequestID(r.Context()))
		return
	}

	stats := h.orchestrator.GetStatistics()
	response.JSON(w, http.StatusOK, models.SagaStatsResponse{
		Total:                  int64(stats.TotalExecutions),
		Active:                 int64(stats.ActiveExecutions),
		Completed:              int64(stats.ByStatus[saga.StatusCompleted]),
		Failed:                 int64(stats.ByStatus[saga.StatusFailed]),
		Compensated:            int64(stats.ByStatus[saga.StatusCompensated]),
		Definitions:            stats.RegisteredDefinitions,
		AverageExecutionTimeMS: stats.AverageExecutionTime.Milliseconds(),
	})
}

// ListDefinitions handles GET /api/v1/definitions.
func (h *SagaHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "saga orchestrator unavailable", getRequestID(r.Context()))
		return
	}

	registry := h.orchestrator.Registry()
	ids := registry.IDs()
	items := make([]models.DefinitionSummary, 0, len(ids))
	for _, id := range ids {
		def, err := registry.Definition(id)
		if err != nil {
			continue
		}
		steps := make([]string, 0, len(def.Steps))
		for _, step := range def.Steps {
			steps = append(steps, step.ID)
		}
		items = append(items, models.DefinitionSummary{
			ID:    def.ID,
			Name:  def.Name,
			Steps: steps,
		})
	}

	response.JSON(w, http.StatusOK, models.DefinitionListResponse{
		Items: items,
		Total: len(items),
	})
}

func executionToStatus(execution *saga.Execution) models.SagaStatusResponse {
	resp := models.SagaStatusResponse{
		SagaID:             execution.SagaID,
		DefinitionID:       execution.DefinitionID,
		Status:             string(execution.Status),
		CurrentStepIndex:   execution.CurrentStepIndex,
		CompletedSteps:     append([]string(nil), execution.CompletedSteps...),
		CompensatedSteps:   append([]string(nil), execution.CompensatedSteps...),
		FailedStep:         execution.Metrics.FailedStep,
		Error:              execution.Error,
		CompensationErrors: execution.CompensationErrors,
		StartTime:          execution.StartTime,
		EndTime:            execution.EndTime,
		ExecutionTimeMS:    execution.Metrics.ExecutionTime.Milliseconds(),
	}
	if execution.Context != nil {
		resp.StepResults = execution.Context.StepResults
	}
	return resp
}

func getRequestID(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}
