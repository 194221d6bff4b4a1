package mapper

import (
	"encoding/json"
	"time"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	e := &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Reasoning:     msg.Reasoning,
		State:         msg.State,
		Provider:      msg.Provider,
		Feedback:      msg.Feedback,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     updatedAt,
	}
	// Malformed JSON leaves the slices empty rather than failing the read.
	if len(msg.Citations) > 0 {
		_ = json.Unmarshal(msg.Citations, &e.Citations)
	}
	if len(msg.WebCitations) > 0 {
		_ = json.Unmarshal(msg.WebCitations, &e.WebCitations)
	}
	return e
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) (*model.ChatMessage, error) {
	if msg == nil {
		return nil, nil
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	citations, err := marshalJSON(msg.Citations)
	if err != nil {
		return nil, err
	}
	webCitations, err := marshalJSON(msg.WebCitations)
	if err != nil {
		return nil, err
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Citations:     citations,
		WebCitations:  webCitations,
		Reasoning:     msg.Reasoning,
		State:         msg.State,
		Provider:      msg.Provider,
		Feedback:      msg.Feedback,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
