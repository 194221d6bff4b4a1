package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"civic-assistant-be/internal/constant"
	"civic-assistant-be/internal/dto"
	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/repository/specification"
	"civic-assistant-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const conversationTitleRunes = 80

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService stores finished turns: the user question and the assistant
// answer with its terminal state, in one transaction.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.TurnFinalizedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "failed to unmarshal turn", map[string]interface{}{"error": err.Error()})
		msg.Ack() // never retry a payload we cannot read
		return
	}

	if err := cs.storeTurn(ctx, &payload); err != nil {
		cs.logger.Error("ConsumerService", "failed to store turn", map[string]interface{}{
			"conversation_id": payload.ConversationId,
			"message_id":      payload.Answer.ID,
			"retryable":       retryable(err),
			"error":           err.Error(),
		})
		if retryable(err) {
			msg.Nack()
		} else {
			msg.Ack() // redelivery would fail the same way
		}
		return
	}

	cs.logger.Info("ConsumerService", "turn stored", map[string]interface{}{
		"conversation_id": payload.ConversationId,
		"message_id":      payload.Answer.ID,
		"state":           payload.Answer.State,
	})
	msg.Ack()
}

func (cs *consumerService) storeTurn(ctx context.Context, turn *dto.TurnFinalizedMessage) error {
	answerId, err := uuid.Parse(turn.Answer.ID)
	if err != nil {
		answerId = uuid.New()
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: turn.ConversationId},
		specification.ByUserID{UserID: turn.UserId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		session = &entity.ChatSession{
			Id:        turn.ConversationId,
			UserId:    turn.UserId,
			Title:     conversationTitle(turn.Query),
			CreatedAt: turn.AskedAt,
		}
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			return err
		}
	} else {
		finished := turn.FinishedAt
		session.UpdatedAt = &finished
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return err
		}
	}

	messages := []*entity.ChatMessage{
		{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          constant.ChatMessageRoleUser,
			Content:       turn.Query,
			CreatedAt:     turn.AskedAt,
		},
		{
			Id:            answerId,
			ChatSessionId: session.Id,
			Role:          constant.ChatMessageRoleAssistant,
			Content:       turn.Answer.Content,
			Citations:     turn.Answer.Citations,
			WebCitations:  turn.Answer.WebCitations,
			Reasoning:     turn.Answer.Reasoning,
			State:         string(turn.Answer.State),
			Provider:      turn.Answer.Provider,
			CreatedAt:     turn.FinishedAt,
		},
	}
	if err := uow.ChatMessageRepository().CreateBulk(ctx, messages); err != nil {
		return err
	}

	return uow.Commit()
}

// retryable reports whether storing a turn may succeed on redelivery.
// Constraint violations, such as a conversation id owned by another user,
// fail identically every time.
func retryable(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrInvalidData):
		return false
	}
	return true
}

func conversationTitle(query string) string {
	title := strings.Join(strings.Fields(query), " ")
	if utf8.RuneCountInString(title) <= conversationTitleRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:conversationTitleRunes]) + "..."
}
