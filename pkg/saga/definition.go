package saga

import (
	"context"
	"strconv"
)

// HookFunc runs once after a saga reaches a successful terminal state.
// Hook errors are logged, never propagated.
type HookFunc func(ctx context.Context, sagaCtx *Context) error

// FailureHookFunc runs once after a saga reaches a failed or compensated
// terminal state, receiving the original triggering error.
type FailureHookFunc func(ctx context.Context, sagaCtx *Context, cause error) error

// Definition describes an immutable saga: an ordered step list plus
// optional terminal hooks. Definitions are registered once at startup and
// shared by every execution.
type Definition struct {
	ID         string
	Name       string
	Steps      []*Step
	OnComplete HookFunc
	OnFailed   FailureHookFunc

	index map[string]*Step
}

// Builder incrementally constructs Definition instances.
type Builder struct {
	def *Definition
}

// NewDefinition creates a saga definition builder.
func NewDefinition(id, name string) *Builder {
	return &Builder{
		def: &Definition{
			ID:    id,
			Name:  name,
			Steps: make([]*Step, 0),
		},
	}
}

// Step appends a step. Execution order is append order; compensation order
// is the exact reverse.
func (b *Builder) Step(id, name string, action ActionFunc, compensate CompensateFunc, opts ...StepOption) *Builder {
	step := &Step{
		ID:         id,
		Name:       name,
		Action:     action,
		Compensate: compensate,
		Retries:    DefaultStepRetries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(step)
		}
	}
	b.def.Steps = append(b.def.Steps, step)
	return b
}

// OnComplete sets the hook invoked after the saga completes successfully.
func (b *Builder) OnComplete(hook HookFunc) *Builder {
	b.def.OnComplete = hook
	return b
}

// OnFailed sets the hook invoked after the saga fails or is compensated.
func (b *Builder) OnFailed(hook FailureHookFunc) *Builder {
	b.def.OnFailed = hook
	return b
}

// Build validates and returns the definition.
func (b *Builder) Build() (*Definition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return b.def.clone(), nil
}

// Validate checks definition structure: identity fields, a non-empty step
// list, and per-step id/name/action/compensator with unique step ids.
func (d *Definition) Validate() error {
	if d == nil {
		return &ValidationError{Field: "definition", Message: "cannot be nil"}
	}
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if d.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if len(d.Steps) == 0 {
		return &ValidationError{Field: "steps", Message: "must define at least one step"}
	}

	seen := make(map[string]struct{}, len(d.Steps))
	for i, step := range d.Steps {
		if step == nil {
			return &ValidationError{Field: stepField(i), Message: "cannot be nil"}
		}
		if step.ID == "" {
			return &ValidationError{Field: stepField(i) + ".id", Message: "cannot be empty"}
		}
		if step.Name == "" {
			return &ValidationError{Field: stepField(i) + ".name", Message: "cannot be empty"}
		}
		if step.Action == nil {
			return &ValidationError{Field: "step " + step.ID, Message: "missing action"}
		}
		if step.Compensate == nil {
			return &ValidationError{Field: "step " + step.ID, Message: "missing compensation"}
		}
		if step.Timeout < 0 {
			return &ValidationError{Field: "step " + step.ID, Message: "timeout cannot be negative"}
		}
		if step.Retries < 0 {
			return &ValidationError{Field: "step " + step.ID, Message: "retries cannot be negative"}
		}
		if _, dup := seen[step.ID]; dup {
			return &ValidationError{Field: "step " + step.ID, Message: "duplicate step id"}
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}

// StepByID looks up a step definition by id.
func (d *Definition) StepByID(id string) (*Step, bool) {
	if d.index != nil {
		step, ok := d.index[id]
		return step, ok
	}
	for _, step := range d.Steps {
		if step.ID == id {
			return step, true
		}
	}
	return nil, false
}

func (d *Definition) clone() *Definition {
	steps := make([]*Step, len(d.Steps))
	index := make(map[string]*Step, len(d.Steps))
	for i, step := range d.Steps {
		steps[i] = step.clone()
		index[steps[i].ID] = steps[i]
	}
	return &Definition{
		ID:         d.ID,
		Name:       d.Name,
		Steps:      steps,
		OnComplete: d.OnComplete,
		OnFailed:   d.OnFailed,
		index:      index,
	}
}

func stepField(i int) string {
	return "steps[" + strconv.Itoa(i) + "]"
}
