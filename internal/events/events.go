// Package events publishes note lifecycle events to a message broker
// for downstream consumers. Delivery is best-effort: the app never
// fails a request because a broker is down.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Actions carried by note activity events.
const (
	ActionCreated = "created"
	ActionEdited  = "edited"
	ActionDeleted = "deleted"
)

// NoteEvent is the JSON payload published for each note mutation.
type NoteEvent struct {
	Action   string    `json:"action"`
	NoteID   int64     `json:"note_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend and topic. A nil Publisher is valid and
// drops all events, so callers never branch on configuration.
type Publisher struct {
	backend Backend
	topic   string
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend, topic string) *Publisher {
	return &Publisher{backend: backend, topic: topic}
}

// NotePublished emits a note activity event. Publish failures are
// logged and swallowed.
func (p *Publisher) NotePublished(ctx context.Context, event NoteEvent) {
	if p == nil || p.backend == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("events: marshal note event: %v", err)
		return
	}

	attrs := map[string]string{"action": event.Action}
	if _, err := p.backend.Publish(ctx, p.topic, data, attrs); err != nil {
		log.Printf("events: publish note event: %v", err)
	}
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
