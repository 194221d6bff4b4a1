package stream

import (
	"errors"

	"civic-assistant-be/internal/constant"
	"civic-assistant-be/internal/entity"
)

type State string

const (
	StateCreated   State = "created"
	StateStreaming State = "streaming"
	StateFinalized State = "finalized"
	StateCancelled State = "cancelled"
	StateErrored   State = "errored"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateCancelled || s == StateErrored
}

// Message is the assistant answer of one turn. Only the consumer mutates it.
type Message struct {
	ID                  string                `json:"id"`
	Role                string                `json:"role"`
	Content             string                `json:"content"`
	IsStreaming         bool                  `json:"isStreaming"`
	Citations           []entity.BillCitation `json:"citations"`
	WebCitations        []entity.WebCitation  `json:"webCitations,omitempty"`
	Reasoning           string                `json:"reasoning,omitempty"`
	ReasoningInProgress bool                  `json:"reasoningInProgress,omitempty"`
	Feedback            *string               `json:"feedback"`
	State               State                 `json:"state"`
	Related             []entity.BillCitation `json:"related,omitempty"`
	Provider            string                `json:"provider,omitempty"`
}

type EventType string

const (
	EventStatus  EventType = "status"
	EventDelta   EventType = "delta"
	EventDone    EventType = "done"
	EventRelated EventType = "related"
	EventError   EventType = "error"
)

// Event is one UI update, in the order the consumer produced it. The first
// status event of a turn carries the conversation id, so a client that
// started a new conversation learns which id to cancel or continue.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId,omitempty"`
	MessageID      string    `json:"messageId,omitempty"`
	Status         string    `json:"status,omitempty"`
	Delta          string    `json:"delta,omitempty"`
	Message        *Message  `json:"message,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Sink receives the events of one turn. A Send error means the reader is
// gone and the turn is cancelled.
type Sink interface {
	Send(ev Event) error
}

type SinkFunc func(ev Event) error

func (f SinkFunc) Send(ev Event) error { return f(ev) }

// StatusPhrase picks the waiting text for a turn by its sequence number.
func StatusPhrase(turnSeq int) string {
	phrases := constant.StatusPhrases
	if turnSeq < 0 {
		turnSeq = -turnSeq
	}
	return phrases[turnSeq%len(phrases)]
}

// Apology replaces the content of a failed turn.
const Apology = constant.ApologyMessage

var errEmptyResponse = errors.New("provider returned no answer")
