// Package models defines API request and response payloads.
package models

import "time"

// SagaStartRequest describes a saga start payload.
type SagaStartRequest struct {
	DefinitionID  string            `json:"definition_id" validate:"required,min=1,max=100"`
	TenantID      string            `json:"tenant_id,omitempty" validate:"omitempty,max=100"`
	UserID        string            `json:"user_id,omitempty" validate:"omitempty,max=100"`
	CorrelationID string            `json:"correlation_id,omitempty" validate:"omitempty,max=200"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Input         map[string]any    `json:"input,omitempty"`
}

// SagaStartResponse is returned when a saga is accepted for execution.
type SagaStartResponse struct {
	SagaID       string    `json:"saga_id"`
	DefinitionID string    `json:"definition_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// SagaStatusResponse returns current runtime information for one saga execution.
type SagaStatusResponse struct {
	SagaID             string            `json:"saga_id"`
	DefinitionID       string            `json:"definition_id"`
	Status             string            `json:"status"`
	CurrentStepIndex   int               `json:"current_step_index"`
	CompletedSteps     []string          `json:"completed_steps"`
	CompensatedSteps   []string          `json:"compensated_steps"`
	FailedStep         string            `json:"failed_step,omitempty"`
	Error              string            `json:"error,omitempty"`
	CompensationErrors map[string]string `json:"compensation_errors,omitempty"`
	StepResults        map[string]any    `json:"step_results,omitempty"`
	StartTime          time.Time         `json:"start_time"`
	EndTime            *time.Time        `json:"end_time,omitempty"`
	ExecutionTimeMS    int64             `json:"execution_time_ms"`
}

// SagaActionResponse is returned by cancel/retry/resume operations.
type SagaActionResponse struct {
	SagaID   string `json:"saga_id"`
	Accepted bool   `json:"accepted"`
	Status   string `json:"status,omitempty"`
}

// SagaStatsResponse reports orchestrator-level counters.
type SagaStatsResponse struct {
	Total                  int64 `json:"total"`
	Active                 int64 `json:"active"`
	Completed              int64 `json:"completed"`
	Failed                 int64 `json:"failed"`
	Compensated            int64 `json:"compensated"`
	Definitions            int   `json:"definitions"`
	AverageExecutionTimeMS int64 `json:"average_execution_time_ms"`
}

// DefinitionSummary describes one registered saga definition.
type DefinitionSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}

// DefinitionListResponse lists registered saga definitions.
type DefinitionListResponse struct {
	Items []DefinitionSummary `json:"items"`
	Total int                 `json:"total"`
}
