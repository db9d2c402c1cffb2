// Package events fans saga lifecycle events out to in-process subscribers.
package events

import (
	"sync"
	"time"

	"github.com/sagaflow/sagaflow/pkg/saga"
)

// Event is the canonical event payload broadcast to websocket subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Broadcaster broadcasts events to in-process subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe subscribes to events with a buffered channel.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast broadcasts a generic event to all subscribers.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop on overflow to keep broadcasters non-blocking.
		}
	}
}

// BroadcastSagaEvent emits a saga lifecycle event.
func (b *Broadcaster) BroadcastSagaEvent(event saga.Event) {
	payload := map[string]any{
		"saga_id":       event.SagaID,
		"definition_id": event.DefinitionID,
	}
	if event.StepID != "" {
		payload["step_id"] = event.StepID
	}
	if event.Status != "" {
		payload["status"] = string(event.Status)
	}
	if event.Error != "" {
		payload["error"] = event.Error
	}
	if event.Attempts > 0 {
		payload["attempts"] = event.Attempts
	}
	if event.Duration > 0 {
		payload["duration_ms"] = event.Duration.Milliseconds()
	}
	if event.CorrelationID != "" {
		payload["correlation_id"] = event.CorrelationID
	}
	for k, v := range event.Details {
		payload[k] = v
	}

	b.Broadcast(Event{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Payload:   payload,
	})
}

// Publisher returns a saga event publisher backed by this broadcaster.
// The returned function never blocks.
func (b *Broadcaster) Publisher() saga.PublisherFunc {
	return func(event saga.Event) {
		b.BroadcastSagaEvent(event)
	}
}

// Close closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
