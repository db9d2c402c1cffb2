package saga

// Context is the mutable state scoped to one saga execution. It flows
// through every step action and compensation call. Core identity fields are
// strongly typed; Metadata is the open extension bag for step-specific data.
type Context struct {
	SagaID        string            `json:"saga_id"`
	TenantID      string            `json:"tenant_id,omitempty"`
	UserID        string            `json:"user_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Input         any               `json:"input,omitempty"`
	StepResults   map[string]any    `json:"step_results"`
	Metadata      map[string]string `json:"metadata,omitempty"`

	// CurrentStep is the id of the step in flight, kept for crash
	// recovery diagnostics.
	CurrentStep string `json:"current_step,omitempty"`
}

// NewContext creates an execution context for one saga run.
func NewContext(sagaID string, input any, opts StartOptions) *Context {
	metadata := make(map[string]string, len(opts.Metadata))
	for k, v := range opts.Metadata {
		metadata[k] = v
	}
	return &Context{
		SagaID:        sagaID,
		TenantID:      opts.TenantID,
		UserID:        opts.UserID,
		CorrelationID: opts.CorrelationID,
		Input:         input,
		StepResults:   make(map[string]any),
		Metadata:      metadata,
	}
}

// Result returns the recorded action result for a step. The second return
// is false when the step has no persisted result, which compensators must
// tolerate after a process restart.
func (c *Context) Result(stepID string) (any, bool) {
	result, ok := c.StepResults[stepID]
	return result, ok
}

func (c *Context) clone() *Context {
	if c == nil {
		return nil
	}
	clone := &Context{
		SagaID:        c.SagaID,
		TenantID:      c.TenantID,
		UserID:        c.UserID,
		CorrelationID: c.CorrelationID,
		Input:         c.Input,
		StepResults:   copyResultMap(c.StepResults),
		CurrentStep:   c.CurrentStep,
	}
	if c.Metadata != nil {
		clone.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

func copyResultMap(source map[string]any) map[string]any {
	copied := make(map[string]any, len(source))
	for k, v := range source {
		copied[k] = v
	}
	return copied
}
