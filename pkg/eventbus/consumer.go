package eventbus

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sagaflow/sagaflow/pkg/saga"
)

// Consumer decodes lifecycle envelopes and suppresses duplicate deliveries
// by event id.
type Consumer struct {
	mu         sync.Mutex
	seenEvents map[string]struct{}
}

// NewConsumer creates a deduplicating consumer.
func NewConsumer() *Consumer {
	return &Consumer{
		seenEvents: make(map[string]struct{}),
	}
}

// Decode decodes raw envelope bytes into the carried saga event. The third
// return is true when the envelope is a duplicate delivery.
func (c *Consumer) Decode(raw []byte) (Envelope, saga.Event, bool, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Envelope{}, saga.Event{}, false, fmt.Errorf("eventbus: invalid envelope json: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.seenEvents[envelope.EventID]; exists {
		c.mu.Unlock()
		return envelope, saga.Event{}, true, nil
	}
	c.seenEvents[envelope.EventID] = struct{}{}
	c.mu.Unlock()

	var event saga.Event
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return Envelope{}, saga.Event{}, false, fmt.Errorf("eventbus: invalid event payload: %w", err)
	}
	return envelope, event, false, nil
}
