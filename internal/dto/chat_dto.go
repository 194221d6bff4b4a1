package dto

import (
	"time"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/google/uuid"
)

type PreviousMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant model system"`
	Content string `json:"content"`
}

type ChatContext struct {
	PreviousMessages []PreviousMessage `json:"previousMessages" validate:"max=50,dive"`
	// SystemContext replaces the default persona when set.
	SystemContext string `json:"systemContext,omitempty" validate:"max=8000"`
}

type ChatEntity struct {
	Kind string `json:"kind" validate:"required,oneof=bill member committee"`
	Name string `json:"name" validate:"required,max=200"`
}

type ChatRequest struct {
	Prompt         string      `json:"prompt" validate:"required,max=4000"`
	Type           string      `json:"type" validate:"omitempty,oneof=chat"`
	Stream         *bool       `json:"stream"`
	Model          string      `json:"model" validate:"max=100"`
	Provider       string      `json:"provider" validate:"omitempty,oneof=openai anthropic perplexity gemini ollama"`
	ConversationId string      `json:"conversationId" validate:"omitempty,uuid"`
	Context        ChatContext `json:"context"`
	Entity         *ChatEntity `json:"entity,omitempty"`
}

// StreamRequested defaults to true when the client does not say.
func (r *ChatRequest) StreamRequested() bool {
	return r.Stream == nil || *r.Stream
}

type ChatResponse struct {
	ConversationId string          `json:"conversationId"`
	Message        *stream.Message `json:"message"`
}

// CancelTurnResponse reports a local cancel, or that the request was relayed
// to the other instances because no turn is open here.
type CancelTurnResponse struct {
	Cancelled bool `json:"cancelled"`
	Forwarded bool `json:"forwarded,omitempty"`
}

type SubmitFeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=good bad"`
}

type ConversationResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ConversationMessageResponse struct {
	Id           uuid.UUID             `json:"id"`
	Role         string                `json:"role"`
	Content      string                `json:"content"`
	Citations    []entity.BillCitation `json:"citations,omitempty"`
	WebCitations []entity.WebCitation  `json:"webCitations,omitempty"`
	Reasoning    string                `json:"reasoning,omitempty"`
	State        string                `json:"state,omitempty"`
	Feedback     *string               `json:"feedback"`
	CreatedAt    time.Time             `json:"created_at"`
}

// TurnFinalizedMessage is the in-process event the persistence consumer stores.
type TurnFinalizedMessage struct {
	ConversationId uuid.UUID      `json:"conversation_id"`
	UserId         uuid.UUID      `json:"user_id"`
	Query          string         `json:"query"`
	AskedAt        time.Time      `json:"asked_at"`
	Answer         stream.Message `json:"answer"`
	FinishedAt     time.Time      `json:"finished_at"`
}

// WsClientMessage is what a chat socket client sends: a new prompt or a stop.
type WsClientMessage struct {
	Type string       `json:"type" validate:"required,oneof=prompt stop"`
	Chat *ChatRequest `json:"chat,omitempty"`
}
