package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.turn_finalized").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to the cross-service bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const TypeTurnFinalized = "chat.turn_finalized"

// TurnFinalized reports how a turn ended. It carries counts, not content.
func TurnFinalized(conversationID, messageID, state, provider string, citations, answerChars int, elapsed time.Duration) BaseEvent {
	return BaseEvent{
		Type: TypeTurnFinalized,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"message_id":      messageID,
			"state":           state,
			"provider":        provider,
			"citations":       citations,
			"answer_chars":    answerChars,
			"elapsed_ms":      elapsed.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// Nop drops every event. Used when the bus is not configured.
var Nop Publisher = nopPublisher{}
