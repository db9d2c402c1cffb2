package saga

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBackoffBase is the first retry delay; each further attempt doubles
// it.
const DefaultBackoffBase = time.Second

// ExecutorOption customizes StepExecutor initialization.
type ExecutorOption func(executor *StepExecutor)

// WithBackoffBase overrides the base retry delay.
func WithBackoffBase(base time.Duration) ExecutorOption {
	return func(executor *StepExecutor) {
		if base > 0 {
			executor.backoffBase = base
		}
	}
}

// WithExecutorLogger wires a logger into the executor.
func WithExecutorLogger(logger Logger) ExecutorOption {
	return func(executor *StepExecutor) {
		if logger != nil {
			executor.logger = logger
		}
	}
}

// WithExecutorMetrics wires a metrics recorder into the executor.
func WithExecutorMetrics(metrics MetricsRecorder) ExecutorOption {
	return func(executor *StepExecutor) {
		if metrics != nil {
			executor.metrics = metrics
		}
	}
}

// WithExecutorPublisher wires an event publisher into the executor.
func WithExecutorPublisher(publisher EventPublisher) ExecutorOption {
	return func(executor *StepExecutor) {
		if publisher != nil {
			executor.publisher = publisher
		}
	}
}

// StepExecutor runs a single forward step with per-step timeout and retry.
type StepExecutor struct {
	backoffBase time.Duration
	logger      Logger
	metrics     MetricsRecorder
	publisher   EventPublisher
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewStepExecutor creates a step executor.
func NewStepExecutor(options ...ExecutorOption) *StepExecutor {
	executor := &StepExecutor{
		backoffBase: DefaultBackoffBase,
		logger:      &nopLogger{},
		metrics:     &nopMetricsRecorder{},
		publisher:   &nopPublisher{},
		sleep:       sleepContext,
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor
}

type stepOutcome struct {
	result any
	err    error
}

// Execute runs one step action until it succeeds, the attempt budget is
// exhausted, or the saga context is cancelled. A critical step gets exactly
// one attempt. The caller records the returned result.
func (e *StepExecutor) Execute(ctx context.Context, sagaCtx *Context, step *Step) (any, error) {
	attempts := step.Retries + 1
	if step.Critical {
		attempts = 1
	}

	spanCtx, span := sagaTracer().Start(ctx, spanSagaStep,
		trace.WithAttributes(
			attribute.String("saga.id", sagaCtx.SagaID),
			attribute.String("saga.step.id", step.ID),
			attribute.Int("saga.step.max_attempts", attempts),
		))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		start := time.Now()
		result, err := e.runAttempt(spanCtx, sagaCtx, step)
		duration := time.Since(start)

		e.publisher.Publish(Event{
			Type:          EventStepExecuted,
			SagaID:        sagaCtx.SagaID,
			StepID:        step.ID,
			Attempts:      attempt,
			Duration:      duration,
			Error:         errorString(err),
			CorrelationID: sagaCtx.CorrelationID,
			Timestamp:     time.Now().UTC(),
		})

		if err == nil {
			e.metrics.RecordStepExecution(step.ID, "success", duration)
			span.SetAttributes(attribute.Int("saga.step.attempts", attempt))
			return result, nil
		}

		lastErr = err
		e.metrics.RecordStepExecution(step.ID, "failure", duration)
		e.logger.Warn("saga step attempt failed",
			"saga_id", sagaCtx.SagaID,
			"step_id", step.ID,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err)

		if attempt < attempts {
			e.metrics.RecordStepRetry(step.ID)
			e.publisher.Publish(Event{
				Type:          EventStepRetry,
				SagaID:        sagaCtx.SagaID,
				StepID:        step.ID,
				Attempts:      attempt,
				Error:         err.Error(),
				CorrelationID: sagaCtx.CorrelationID,
				Timestamp:     time.Now().UTC(),
			})
			if sleepErr := e.sleep(ctx, e.backoffFor(attempt)); sleepErr != nil {
				span.SetStatus(codes.Error, sleepErr.Error())
				return nil, sleepErr
			}
		}
	}

	span.SetStatus(codes.Error, lastErr.Error())
	return nil, &StepExecutionError{StepID: step.ID, Attempts: attempts, Err: lastErr}
}

// runAttempt executes the action under the step timeout. The action receives
// a deadline context but a hung action is not force-killed; its eventual
// result is discarded.
func (e *StepExecutor) runAttempt(ctx context.Context, sagaCtx *Context, step *Step) (any, error) {
	timeout := step.timeoutOrDefault()
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan stepOutcome, 1)
	go func() {
		result, err := step.Action(attemptCtx, sagaCtx)
		done <- stepOutcome{result: result, err: err}
	}()

	select {
	case outcome := <-done:
		return outcome.result, outcome.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &StepTimeoutError{StepID: step.ID, Timeout: timeout}
	}
}

func (e *StepExecutor) backoffFor(attempt int) time.Duration {
	return e.backoffBase << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
