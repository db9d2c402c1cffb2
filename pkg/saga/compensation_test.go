package saga

import (
	"context"
	"errors"
	"testing"
	"time"
)

func compensationDefinition(t *testing.T, trace *[]string, failing map[string]bool) *Definition {
	t.Helper()
	builder := NewDefinition("rollback", "Rollback")
	for _, id := range []string{"s1", "s2", "s3"} {
		stepID := id
		builder.Step(stepID, stepID,
			func(ctx context.Context, sagaCtx *Context) (any, error) {
				return stepID + "-result", nil
			},
			func(ctx context.Context, sagaCtx *Context, result any) error {
				*trace = append(*trace, stepID)
				if failing[stepID] {
					return errors.New("undo failed")
				}
				return nil
			})
	}
	def, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return def
}

func completedExecution(def *Definition, steps ...string) *Execution {
	execution := NewExecution("saga-comp-1", def, NewContext("saga-comp-1", nil, StartOptions{}))
	for _, stepID := range steps {
		execution.Context.StepResults[stepID] = stepID + "-result"
		execution.MarkStepCompleted(stepID)
	}
	return execution
}

func TestCompensationEngineStrictReverseOrder(t *testing.T) {
	var trace []string
	def := compensationDefinition(t, &trace, nil)
	execution := completedExecution(def, "s1", "s2", "s3")

	engine := NewCompensationEngine()
	engine.Compensate(context.Background(), def, execution)

	want := []string{"s3", "s2", "s1"}
	if len(trace) != len(want) {
		t.Fatalf("expected %d compensations, got %v", len(want), trace)
	}
	for i, stepID := range want {
		if trace[i] != stepID {
			t.Fatalf("compensation order = %v, want %v", trace, want)
		}
	}
	if len(execution.CompensatedSteps) != 3 {
		t.Fatalf("expected 3 compensated steps, got %v", execution.CompensatedSteps)
	}
}

func TestCompensationEngineBestEffortOnFailure(t *testing.T) {
	var trace []string
	def := compensationDefinition(t, &trace, map[string]bool{"s2": true})
	execution := completedExecution(def, "s1", "s2", "s3")

	engine := NewCompensationEngine()
	engine.Compensate(context.Background(), def, execution)

	if len(trace) != 3 {
		t.Fatalf("every completed step must be attempted, got %v", trace)
	}
	if len(execution.CompensatedSteps) != 2 {
		t.Fatalf("expected 2 successful compensations, got %v", execution.CompensatedSteps)
	}
	if _, recorded := execution.CompensationErrors["s2"]; !recorded {
		t.Fatalf("expected recorded compensation error for s2, got %v", execution.CompensationErrors)
	}
}

func TestCompensationEngineIdempotencySkipsSeenSteps(t *testing.T) {
	var trace []string
	def := compensationDefinition(t, &trace, nil)
	execution := completedExecution(def, "s1", "s2")
	execution.MarkStepCompensated("s2")

	idempotency := NewInMemoryIdempotencyStore()
	idempotency.Mark(CompensationIdempotencyKey(execution.SagaID, "s2"))

	engine := NewCompensationEngine(WithIdempotencyStore(idempotency))
	engine.Compensate(context.Background(), def, execution)

	if len(trace) != 1 || trace[0] != "s1" {
		t.Fatalf("expected only s1 to be compensated, got %v", trace)
	}
}

func TestCompensationEngineToleratesMissingResult(t *testing.T) {
	var got any = "sentinel"
	def, err := NewDefinition("partial", "Partial").
		Step("s1", "s1",
			func(ctx context.Context, sagaCtx *Context) (any, error) {
				return "s1-result", nil
			},
			func(ctx context.Context, sagaCtx *Context, result any) error {
				got = result
				return nil
			}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Completed step with no persisted result, as after a crash between the
	// action committing and the result persisting.
	execution := NewExecution("saga-comp-2", def, NewContext("saga-comp-2", nil, StartOptions{}))
	execution.MarkStepCompleted("s1")

	engine := NewCompensationEngine()
	engine.Compensate(context.Background(), def, execution)

	if got != nil {
		t.Fatalf("expected nil result for unpersisted step, got %#v", got)
	}
	if len(execution.CompensatedSteps) != 1 {
		t.Fatalf("expected s1 compensated, got %v", execution.CompensatedSteps)
	}
}

func TestCompensationEngineTimeoutRecordedAndLoopContinues(t *testing.T) {
	var trace []string
	def, err := NewDefinition("slow-undo", "Slow Undo").
		Step("s1", "s1",
			func(ctx context.Context, sagaCtx *Context) (any, error) { return "s1", nil },
			func(ctx context.Context, sagaCtx *Context, result any) error {
				trace = append(trace, "s1")
				return nil
			}).
		Step("s2", "s2",
			func(ctx context.Context, sagaCtx *Context) (any, error) { return "s2", nil },
			func(ctx context.Context, sagaCtx *Context, result any) error {
				time.Sleep(200 * time.Millisecond)
				return nil
			},
			StepTimeout(20*time.Millisecond)).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	execution := completedExecution(def, "s1", "s2")
	engine := NewCompensationEngine()
	engine.Compensate(context.Background(), def, execution)

	if _, recorded := execution.CompensationErrors["s2"]; !recorded {
		t.Fatalf("expected timeout recorded for s2, got %v", execution.CompensationErrors)
	}
	if len(trace) != 1 || trace[0] != "s1" {
		t.Fatalf("expected s1 still compensated after s2 timeout, got %v", trace)
	}
	if len(execution.CompensatedSteps) != 1 || execution.CompensatedSteps[0] != "s1" {
		t.Fatalf("expected compensatedSteps [s1], got %v", execution.CompensatedSteps)
	}
}
