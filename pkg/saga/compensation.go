package saga

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IdempotencyStore tracks compensations that already ran, so a retried
// rollback never undoes the same step twice.
type IdempotencyStore interface {
	Seen(key string) bool
	Mark(key string)
}

// InMemoryIdempotencyStore is a thread-safe idempotency store.
type InMemoryIdempotencyStore struct {
	store sync.Map
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{}
}

// Seen checks whether a key was already recorded.
func (s *InMemoryIdempotencyStore) Seen(key string) bool {
	_, ok := s.store.Load(key)
	return ok
}

// Mark records one idempotency key.
func (s *InMemoryIdempotencyStore) Mark(key string) {
	s.store.Store(key, struct{}{})
}

// CompensationIdempotencyKey builds an idempotency key for one compensation
// operation.
func CompensationIdempotencyKey(sagaID, stepID string) string {
	return sagaID + ":" + stepID
}

// CompensationEngineOption customizes CompensationEngine initialization.
type CompensationEngineOption func(engine *CompensationEngine)

// WithCompensationLogger wires a logger into the engine.
func WithCompensationLogger(logger Logger) CompensationEngineOption {
	return func(engine *CompensationEngine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// WithCompensationMetrics wires a metrics recorder into the engine.
func WithCompensationMetrics(metrics MetricsRecorder) CompensationEngineOption {
	return func(engine *CompensationEngine) {
		if metrics != nil {
			engine.metrics = metrics
		}
	}
}

// WithCompensationPublisher wires an event publisher into the engine.
func WithCompensationPublisher(publisher EventPublisher) CompensationEngineOption {
	return func(engine *CompensationEngine) {
		if publisher != nil {
			engine.publisher = publisher
		}
	}
}

// WithIdempotencyStore overrides the compensation idempotency store.
func WithIdempotencyStore(store IdempotencyStore) CompensationEngineOption {
	return func(engine *CompensationEngine) {
		if store != nil {
			engine.idempotency = store
		}
	}
}

// CompensationEngine undoes completed steps in strict reverse order. A
// failing or timed-out compensation is recorded on the execution and the
// loop continues; rollback is best effort and always visits every completed
// step.
type CompensationEngine struct {
	logger      Logger
	metrics     MetricsRecorder
	publisher   EventPublisher
	idempotency IdempotencyStore
}

// NewCompensationEngine creates a compensation engine.
func NewCompensationEngine(options ...CompensationEngineOption) *CompensationEngine {
	engine := &CompensationEngine{
		logger:      &nopLogger{},
		metrics:     &nopMetricsRecorder{},
		publisher:   &nopPublisher{},
		idempotency: NewInMemoryIdempotencyStore(),
	}
	for _, option := range options {
		if option != nil {
			option(engine)
		}
	}
	return engine
}

// Compensate walks execution.CompletedSteps backwards, invoking each step's
// compensator with that step's persisted result. Individual failures are
// recorded via RecordCompensationError and never abort the pass. The engine
// mutates execution but does not transition its status; the orchestrator
// owns state transitions.
func (e *CompensationEngine) Compensate(ctx context.Context, def *Definition, execution *Execution) {
	start := time.Now()

	spanCtx, span := sagaTracer().Start(ctx, spanSagaCompensate,
		trace.WithAttributes(
			attribute.String("saga.id", execution.SagaID),
			attribute.Int("saga.completed_steps", len(execution.CompletedSteps)),
		))
	defer span.End()

	for i := len(execution.CompletedSteps) - 1; i >= 0; i-- {
		stepID := execution.CompletedSteps[i]
		step, ok := def.StepByID(stepID)
		if !ok {
			// Completed step missing from the definition: the registered
			// definition was overwritten mid-flight. Record and move on.
			err := &NotFoundError{Entity: "saga step", ID: stepID}
			execution.RecordCompensationError(stepID, err)
			e.logger.Error("compensation skipped unknown step",
				"saga_id", execution.SagaID,
				"step_id", stepID,
				"error", err)
			continue
		}

		key := CompensationIdempotencyKey(execution.SagaID, stepID)
		if e.idempotency.Seen(key) {
			continue
		}

		if err := e.compensateStep(spanCtx, step, execution); err != nil {
			execution.RecordCompensationError(stepID, &CompensationError{StepID: stepID, Err: err})
			e.metrics.RecordCompensation("failure")
			e.publisher.Publish(Event{
				Type:          EventCompensationFailed,
				SagaID:        execution.SagaID,
				DefinitionID:  execution.DefinitionID,
				StepID:        stepID,
				Error:         err.Error(),
				CorrelationID: execution.Context.CorrelationID,
				Timestamp:     time.Now().UTC(),
			})
			e.logger.Error("saga step compensation failed",
				"saga_id", execution.SagaID,
				"step_id", stepID,
				"error", err)
			continue
		}

		e.idempotency.Mark(key)
		execution.MarkStepCompensated(stepID)
		e.metrics.RecordCompensation("success")
		e.publisher.Publish(Event{
			Type:          EventStepCompensated,
			SagaID:        execution.SagaID,
			DefinitionID:  execution.DefinitionID,
			StepID:        stepID,
			CorrelationID: execution.Context.CorrelationID,
			Timestamp:     time.Now().UTC(),
		})
	}

	e.metrics.RecordCompensationDuration(time.Since(start))
}

// compensateStep runs one compensator under the step timeout. Like forward
// actions, a hung compensator is not force-killed; its eventual result is
// discarded.
func (e *CompensationEngine) compensateStep(ctx context.Context, step *Step, execution *Execution) error {
	spanCtx, span := sagaTracer().Start(ctx, spanSagaStepCompensate,
		trace.WithAttributes(attribute.String("saga.step.id", step.ID)))
	defer span.End()

	timeout := step.timeoutOrDefault()
	stepCtx, cancel := context.WithTimeout(spanCtx, timeout)
	defer cancel()

	// Result may be absent when the process restarted after the action
	// committed but before the result was persisted. Compensators tolerate
	// a nil result.
	result := execution.Context.StepResults[step.ID]

	done := make(chan error, 1)
	go func() {
		done <- step.Compensate(stepCtx, execution.Context, result)
	}()

	select {
	case err := <-done:
		return err
	case <-stepCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &StepTimeoutError{StepID: step.ID, Timeout: timeout}
	}
}
