package saga

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noopAction(ctx context.Context, sagaCtx *Context) (any, error) { return nil, nil }

func TestBuilderAppliesStepDefaultsAndOptions(t *testing.T) {
	def, err := NewDefinition("opts", "Options").
		Step("plain", "Plain", noopAction, NoopCompensate).
		Step("tuned", "Tuned", noopAction, NoopCompensate,
			StepTimeout(5*time.Second), StepRetries(0), Critical()).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	plain, ok := def.StepByID("plain")
	if !ok {
		t.Fatal("step plain not found")
	}
	if plain.Retries != DefaultStepRetries {
		t.Fatalf("expected default retries %d, got %d", DefaultStepRetries, plain.Retries)
	}
	if plain.timeoutOrDefault() != DefaultStepTimeout {
		t.Fatalf("expected default timeout %s, got %s", DefaultStepTimeout, plain.timeoutOrDefault())
	}

	tuned, ok := def.StepByID("tuned")
	if !ok {
		t.Fatal("step tuned not found")
	}
	if tuned.Retries != 0 || tuned.Timeout != 5*time.Second || !tuned.Critical {
		t.Fatalf("step options not applied: %+v", tuned)
	}
}

func TestDefinitionValidation(t *testing.T) {
	cases := []struct {
		name    string
		builder *Builder
	}{
		{"missing id", NewDefinition("", "Name").Step("a", "A", noopAction, NoopCompensate)},
		{"missing name", NewDefinition("id", "").Step("a", "A", noopAction, NoopCompensate)},
		{"no steps", NewDefinition("id", "Name")},
		{"missing step id", NewDefinition("id", "Name").Step("", "A", noopAction, NoopCompensate)},
		{"missing step name", NewDefinition("id", "Name").Step("a", "", noopAction, NoopCompensate)},
		{"missing action", NewDefinition("id", "Name").Step("a", "A", nil, NoopCompensate)},
		{"missing compensation", NewDefinition("id", "Name").Step("a", "A", noopAction, nil)},
		{"duplicate step id", NewDefinition("id", "Name").
			Step("a", "A", noopAction, NoopCompensate).
			Step("a", "A2", noopAction, NoopCompensate)},
		{"negative timeout", NewDefinition("id", "Name").
			Step("a", "A", noopAction, NoopCompensate, StepTimeout(-time.Second))},
		{"negative retries", NewDefinition("id", "Name").
			Step("a", "A", noopAction, NoopCompensate, StepRetries(-1))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	def, err := NewDefinition("flow", "Flow v1").
		Step("a", "A", noopAction, NoopCompensate).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	registry := NewRegistry()
	if err := registry.Register(def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registry.Count() != 1 {
		t.Fatalf("expected 1 definition, got %d", registry.Count())
	}

	got, err := registry.Definition("flow")
	if err != nil {
		t.Fatalf("Definition() error = %v", err)
	}
	if got.Name != "Flow v1" {
		t.Fatalf("unexpected definition name %q", got.Name)
	}

	_, err = registry.Definition("ghost")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRegistryReRegisterOverwrites(t *testing.T) {
	registry := NewRegistry()

	v1, err := NewDefinition("flow", "Flow v1").
		Step("a", "A", noopAction, NoopCompensate).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	v2, err := NewDefinition("flow", "Flow v2").
		Step("a", "A", noopAction, NoopCompensate).
		Step("b", "B", noopAction, NoopCompensate).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := registry.Register(v1); err != nil {
		t.Fatalf("Register(v1) error = %v", err)
	}
	if err := registry.Register(v2); err != nil {
		t.Fatalf("Register(v2) error = %v", err)
	}

	got, err := registry.Definition("flow")
	if err != nil {
		t.Fatalf("Definition() error = %v", err)
	}
	if got.Name != "Flow v2" || len(got.Steps) != 2 {
		t.Fatalf("expected overwritten definition, got %q with %d steps", got.Name, len(got.Steps))
	}
	if registry.Count() != 1 {
		t.Fatalf("expected 1 definition after overwrite, got %d", registry.Count())
	}
}

func TestRegistryRejectsInvalidDefinition(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(&Definition{ID: "bad", Name: "Bad"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if registry.Count() != 0 {
		t.Fatal("invalid definition must not be stored")
	}
}
