// Package saga provides orchestration-based distributed transaction
// primitives: ordered step execution with bounded retries, strict
// reverse-order compensation, and durable recovery across restarts.
package saga

import (
	"context"
	"time"
)

const (
	// DefaultStepTimeout bounds each action or compensation attempt when a
	// step declares no explicit timeout.
	DefaultStepTimeout = 30 * time.Second

	// DefaultStepRetries is the retry budget for steps that do not set one.
	DefaultStepRetries = 3
)

// ActionFunc executes a forward step. The returned result is recorded in
// the saga context and handed to the matching compensation on rollback.
type ActionFunc func(ctx context.Context, sagaCtx *Context) (any, error)

// CompensateFunc undoes a completed step. The result argument is the value
// returned by the matching action; it may be nil when the process restarted
// after the action committed but before the result was persisted.
type CompensateFunc func(ctx context.Context, sagaCtx *Context, result any) error

// NoopCompensate is an explicit do-nothing compensator for steps whose
// forward action needs no undo. There is no implicit skip: every step must
// declare a compensator.
func NoopCompensate(context.Context, *Context, any) error { return nil }

// Step is one executable unit in a saga definition.
type Step struct {
	ID      string
	Name    string
	Action  ActionFunc
	// Compensate undoes the action. Required; use NoopCompensate when the
	// action has nothing to undo.
	Compensate CompensateFunc

	// Timeout bounds each attempt of the action and the compensation.
	Timeout time.Duration

	// Retries is the number of retries after the first failed attempt, so
	// a step is attempted at most Retries+1 times.
	Retries int

	// Critical steps trigger rollback on the first failure regardless of
	// remaining retry budget.
	Critical bool
}

// StepOption configures a step appended through the definition builder.
type StepOption func(step *Step)

// StepTimeout overrides the per-attempt timeout for this step.
func StepTimeout(timeout time.Duration) StepOption {
	return func(step *Step) {
		step.Timeout = timeout
	}
}

// StepRetries overrides the retry budget for this step. Zero disables
// retries entirely.
func StepRetries(retries int) StepOption {
	return func(step *Step) {
		step.Retries = retries
	}
}

// Critical marks the step as critical: any failure rolls the saga back
// immediately.
func Critical() StepOption {
	return func(step *Step) {
		step.Critical = true
	}
}

func (s *Step) clone() *Step {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// timeoutOrDefault returns the effective per-attempt timeout.
func (s *Step) timeoutOrDefault() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultStepTimeout
}
