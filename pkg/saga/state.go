package saga

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of one saga execution.
type Status string

const (
	StatusRunning      Status = "running"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusCompensating Status = "compensating"
	StatusCompensated  Status = "compensated"
)

var validTransitions = map[Status]map[Status]struct{}{
	StatusRunning: {
		StatusCompleted:    {},
		StatusCompensating: {},
		StatusFailed:       {},
	},
	StatusCompensating: {
		StatusCompensated: {},
		StatusFailed:      {},
	},
	// Explicit retry resumes at the first incomplete step.
	StatusFailed: {
		StatusRunning: {},
	},
	StatusCompensated: {
		StatusRunning: {},
	},
}

// IsTerminal reports whether no further automatic transition occurs.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCompensated:
		return true
	default:
		return false
	}
}

// CanRetry reports whether an explicit retry may move the saga back to
// running.
func (s Status) CanRetry() bool {
	return s == StatusFailed || s == StatusCompensated
}

// CanTransitionTo checks whether a state transition is valid.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	validNext, ok := validTransitions[s]
	if !ok {
		return false
	}
	_, ok = validNext[next]
	return ok
}

// ExecutionMetrics aggregates per-execution progress counters.
type ExecutionMetrics struct {
	TotalSteps     int           `json:"total_steps"`
	CompletedSteps int           `json:"completed_steps"`
	FailedStep     string        `json:"failed_step,omitempty"`
	ExecutionTime  time.Duration `json:"execution_time,omitempty"`
}

// Execution is the durable, authoritative record of one in-flight or
// completed saga. It is persisted before and after every step transition so
// a crash can resume from the last persisted index.
type Execution struct {
	SagaID       string   `json:"saga_id"`
	DefinitionID string   `json:"definition_id"`
	Context      *Context `json:"context"`
	Status       Status   `json:"status"`

	CurrentStepIndex int      `json:"current_step_index"`
	CompletedSteps   []string `json:"completed_steps"`
	CompensatedSteps []string `json:"compensated_steps"`

	// CompensationErrors records per-step compensation failures; comparing
	// CompensatedSteps against CompletedSteps exposes partial rollback.
	CompensationErrors map[string]string `json:"compensation_errors,omitempty"`

	Error     string           `json:"error,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   *time.Time       `json:"end_time,omitempty"`
	Metrics   ExecutionMetrics `json:"metrics"`
}

// NewExecution creates a running execution for one saga instance.
func NewExecution(sagaID string, def *Definition, sagaCtx *Context) *Execution {
	return &Execution{
		SagaID:           sagaID,
		DefinitionID:     def.ID,
		Context:          sagaCtx,
		Status:           StatusRunning,
		CompletedSteps:   make([]string, 0, len(def.Steps)),
		CompensatedSteps: make([]string, 0),
		StartTime:        time.Now().UTC(),
		Metrics: ExecutionMetrics{
			TotalSteps: len(def.Steps),
		},
	}
}

// TransitionTo applies a state transition, stamping EndTime and the
// wall-clock execution time on terminal states.
func (e *Execution) TransitionTo(next Status) error {
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid saga state transition: %s -> %s", e.Status, next)
	}
	e.Status = next
	if next.IsTerminal() {
		now := time.Now().UTC()
		e.EndTime = &now
		e.Metrics.ExecutionTime = now.Sub(e.StartTime)
	}
	return nil
}

// MarkStepCompleted appends a completed step id. CompletedSteps is
// append-only while the saga is running.
func (e *Execution) MarkStepCompleted(stepID string) {
	e.CompletedSteps = append(e.CompletedSteps, stepID)
	e.Metrics.CompletedSteps = len(e.CompletedSteps)
}

// MarkStepCompensated appends a compensated step id.
func (e *Execution) MarkStepCompensated(stepID string) {
	e.CompensatedSteps = append(e.CompensatedSteps, stepID)
}

// RecordCompensationError records a best-effort compensation failure.
func (e *Execution) RecordCompensationError(stepID string, err error) {
	if e.CompensationErrors == nil {
		e.CompensationErrors = make(map[string]string)
	}
	e.CompensationErrors[stepID] = err.Error()
}

// SetFailure records the failing step and fatal error.
func (e *Execution) SetFailure(stepID string, err error) {
	e.Metrics.FailedStep = stepID
	if err != nil {
		e.Error = err.Error()
	}
}

// ResetForRetry prepares a failed or compensated execution to resume at the
// first incomplete step.
func (e *Execution) ResetForRetry() {
	e.Error = ""
	e.EndTime = nil
	e.Metrics.FailedStep = ""
	e.Metrics.ExecutionTime = 0
	e.CurrentStepIndex = len(e.CompletedSteps)
	e.Context.CurrentStep = ""
}

func (e *Execution) clone() *Execution {
	if e == nil {
		return nil
	}
	clone := &Execution{
		SagaID:           e.SagaID,
		DefinitionID:     e.DefinitionID,
		Context:          e.Context.clone(),
		Status:           e.Status,
		CurrentStepIndex: e.CurrentStepIndex,
		CompletedSteps:   append([]string(nil), e.CompletedSteps...),
		CompensatedSteps: append([]string(nil), e.CompensatedSteps...),
		Error:            e.Error,
		StartTime:        e.StartTime,
		Metrics:          e.Metrics,
	}
	if e.CompensationErrors != nil {
		clone.CompensationErrors = make(map[string]string, len(e.CompensationErrors))
		for k, v := range e.CompensationErrors {
			clone.CompensationErrors[k] = v
		}
	}
	if e.EndTime != nil {
		end := *e.EndTime
		clone.EndTime = &end
	}
	return clone
}
