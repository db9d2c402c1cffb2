package saga

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sagaflow/sagaflow/pkg/kv/memory"
)

func TestResumeSagaOpensResumeSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	def, err := NewDefinition("traced", "Traced").
		Step("a", "A", func(ctx context.Context, sagaCtx *Context) (any, error) {
			return "a", nil
		}, NoopCompensate).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	crashed := NewExecution("saga-trace-1", def, NewContext("saga-trace-1", nil, StartOptions{}))
	seed := NewOrchestrator(store)
	if err := seed.persist(context.Background(), crashed); err != nil {
		t.Fatalf("persist() error = %v", err)
	}
	if err := seed.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	orchestrator := NewOrchestrator(store,
		WithStepExecutor(NewStepExecutor(WithBackoffBase(time.Millisecond))))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orchestrator.Shutdown(ctx)
	})
	if err := orchestrator.RegisterSaga(def); err != nil {
		t.Fatalf("RegisterSaga() error = %v", err)
	}

	if err := orchestrator.ResumeSaga(context.Background(), "saga-trace-1"); err != nil {
		t.Fatalf("ResumeSaga() error = %v", err)
	}
	waitForStatus(t, orchestrator, "saga-trace-1", StatusCompleted)

	found := false
	for _, span := range recorder.Ended() {
		if span.Name() == spanSagaResume {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a %s span to be recorded, got %d spans", spanSagaResume, len(recorder.Ended()))
	}
}
