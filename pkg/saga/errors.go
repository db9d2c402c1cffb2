package saga

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed saga definition or step at
// registration time.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("saga validation failed: %s: %s", e.Field, e.Message)
}

// NotFoundError reports an unknown definition or execution id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// StepTimeoutError reports that a step action or compensation exceeded its
// allotted timeout. The in-flight call is abandoned, not cancelled.
type StepTimeoutError struct {
	StepID  string
	Timeout time.Duration
}

func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %s timed out after %s", e.StepID, e.Timeout)
}

// StepExecutionError reports a step action that failed after its retry
// budget was exhausted (or immediately, for critical steps).
type StepExecutionError struct {
	StepID   string
	Attempts int
	Err      error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s failed after %d attempt(s): %v", e.StepID, e.Attempts, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }

// CompensationError reports a failed compensating action. Compensation is
// best-effort, so these are recorded and logged but never escalated.
type CompensationError struct {
	StepID string
	Err    error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation of step %s failed: %v", e.StepID, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// OrchestratorFault reports a failure in persistence or internal
// bookkeeping. Faults bypass compensation entirely: compensating with an
// unreliable durability layer could itself corrupt state.
type OrchestratorFault struct {
	Op  string
	Err error
}

func (e *OrchestratorFault) Error() string {
	return fmt.Sprintf("orchestrator fault during %s: %v", e.Op, e.Err)
}

func (e *OrchestratorFault) Unwrap() error { return e.Err }
