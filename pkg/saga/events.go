package saga

import "time"

// EventType identifies a saga lifecycle event.
type EventType string

const (
	EventSagaStarted         EventType = "saga_started"
	EventSagaCompleted       EventType = "saga_completed"
	EventSagaFailed          EventType = "saga_failed"
	EventSagaCancelled       EventType = "saga_cancelled"
	EventSagaRetried         EventType = "saga_retried"
	EventSagaResumed         EventType = "saga_resumed"
	EventSagaCompensated     EventType = "saga_compensated"
	EventStepStarted         EventType = "step_started"
	EventStepExecuted        EventType = "step_executed"
	EventStepCompleted       EventType = "step_completed"
	EventStepRetry           EventType = "step_retry"
	EventStepFailed          EventType = "step_failed"
	EventCompensationStarted EventType = "compensation_started"
	EventStepCompensated     EventType = "step_compensated"
	EventCompensationFailed  EventType = "compensation_failed"
)

// Event is a saga lifecycle notification.
type Event struct {
	Type          EventType      `json:"type"`
	SagaID        string         `json:"saga_id"`
	DefinitionID  string         `json:"definition_id"`
	StepID        string         `json:"step_id,omitempty"`
	Status        Status         `json:"status,omitempty"`
	Error         string         `json:"error,omitempty"`
	Attempts      int            `json:"attempts,omitempty"`
	Duration      time.Duration  `json:"duration,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// EventPublisher receives saga lifecycle events. Publish must not block the
// orchestrator; slow consumers drop or buffer on their side.
type EventPublisher interface {
	Publish(event Event)
}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(event Event)

// Publish implements EventPublisher.
func (f PublisherFunc) Publish(event Event) {
	f(event)
}

type nopPublisher struct{}

func (n *nopPublisher) Publish(event Event) {}

// Logger is the narrow logging surface the saga package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string, args ...any) {}
func (n *nopLogger) Info(msg string, args ...any)  {}
func (n *nopLogger) Warn(msg string, args ...any)  {}
func (n *nopLogger) Error(msg string, args ...any) {}
