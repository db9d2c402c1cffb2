package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sagaflow/sagaflow/pkg/saga"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func TestPublishSagaEventDeliversOrderedEnvelopes(t *testing.T) {
	bus := NewMemoryBus()
	sub, err := bus.Subscribe(SagaWildcardSubject("saga-1"), 16)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	publisher, err := NewPublisher("node-a", bus, testRetryConfig(), nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}

	consumer := NewConsumer()
	types := []saga.EventType{saga.EventSagaStarted, saga.EventStepCompleted, saga.EventSagaCompleted}
	for _, eventType := range types {
		if _, err := publisher.PublishSagaEvent(context.Background(), saga.Event{
			Type:      eventType,
			SagaID:    "saga-1",
			Timestamp: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("PublishSagaEvent(%s) error = %v", eventType, err)
		}
	}

	for i, eventType := range types {
		select {
		case msg := <-sub.C():
			envelope, event, duplicate, err := consumer.Decode(msg.Payload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if duplicate {
				t.Fatal("unexpected duplicate on first delivery")
			}
			if envelope.Sequence != int64(i+1) {
				t.Fatalf("sequence = %d, want %d", envelope.Sequence, i+1)
			}
			if event.Type != eventType {
				t.Fatalf("event type = %s, want %s", event.Type, eventType)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestConsumerSuppressesDuplicateDeliveries(t *testing.T) {
	envelope, err := BuildEnvelope(BuildEnvelopeInput{
		EventType:   string(saga.EventSagaStarted),
		NodeID:      "node-a",
		SagaID:      "saga-dup",
		OrderingKey: "saga-dup",
		Sequence:    1,
		Payload:     saga.Event{Type: saga.EventSagaStarted, SagaID: "saga-dup"},
	})
	if err != nil {
		t.Fatalf("BuildEnvelope() error = %v", err)
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	consumer := NewConsumer()
	if _, _, duplicate, err := consumer.Decode(raw); err != nil || duplicate {
		t.Fatalf("first Decode() duplicate = %v, err = %v", duplicate, err)
	}
	if _, _, duplicate, err := consumer.Decode(raw); err != nil || !duplicate {
		t.Fatalf("second Decode() duplicate = %v, err = %v", duplicate, err)
	}
}

// flakyTransport fails a fixed number of publishes before recovering.
type flakyTransport struct {
	mu       sync.Mutex
	failures int
	attempts int
	inner    Transport
}

func (f *flakyTransport) Publish(ctx context.Context, subject string, payload []byte) error {
	f.mu.Lock()
	f.attempts++
	fail := f.attempts <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("transport unavailable")
	}
	return f.inner.Publish(ctx, subject, payload)
}

func TestPublishSagaEventRetriesAndRecovers(t *testing.T) {
	bus := NewMemoryBus()
	transport := &flakyTransport{failures: 2, inner: bus}

	publisher, err := NewPublisher("node-a", transport, testRetryConfig(), nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}

	if _, err := publisher.PublishSagaEvent(context.Background(), saga.Event{
		Type:   saga.EventSagaStarted,
		SagaID: "saga-retry",
	}); err != nil {
		t.Fatalf("PublishSagaEvent() error = %v", err)
	}
	if publisher.Degraded() {
		t.Fatal("publisher must recover after successful publish")
	}

	transport.mu.Lock()
	attempts := transport.attempts
	transport.mu.Unlock()
	if attempts != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", attempts)
	}
}

func TestPublishSagaEventExhaustedRetriesMarksDegraded(t *testing.T) {
	transport := &flakyTransport{failures: 100, inner: NewMemoryBus()}
	publisher, err := NewPublisher("node-a", transport, testRetryConfig(), nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}

	if _, err := publisher.PublishSagaEvent(context.Background(), saga.Event{
		Type:   saga.EventSagaStarted,
		SagaID: "saga-down",
	}); err == nil {
		t.Fatal("expected publish error after exhausted retries")
	}
	if !publisher.Degraded() {
		t.Fatal("publisher must report degraded mode after publish outage")
	}
}

func TestSubjectMatching(t *testing.T) {
	cases := []struct {
		pattern string
		subject string
		want    bool
	}{
		{SagaWildcardSubject("s-1"), SagaSubject("s-1", "saga_started"), true},
		{SagaWildcardSubject("s-1"), SagaSubject("s-2", "saga_started"), false},
		{AllSagasSubject(), SagaSubject("s-2", "step_completed"), true},
		{SagaSubject("s-1", "saga_started"), SagaSubject("s-1", "saga_started"), true},
		{SagaSubject("s-1", "saga_started"), SagaSubject("s-1", "saga_failed"), false},
	}
	for _, tc := range cases {
		if got := subjectMatches(tc.pattern, tc.subject); got != tc.want {
			t.Errorf("subjectMatches(%q, %q) = %v, want %v", tc.pattern, tc.subject, got, tc.want)
		}
	}
}
