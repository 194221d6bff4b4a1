package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"civic-assistant-be/internal/dto"
	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/repository/contract"
	"civic-assistant-be/internal/repository/specification"
	"civic-assistant-be/internal/repository/unitofwork"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// storeUoW fails session creation with createErr and records commits.
type storeUoW struct {
	unitofwork.UnitOfWork
	createErr error
	stored    []*entity.ChatMessage
	committed bool
}

func (u *storeUoW) Begin(context.Context) error { return nil }
func (u *storeUoW) Commit() error               { u.committed = true; return nil }
func (u *storeUoW) Rollback() error             { return nil }

func (u *storeUoW) ChatSessionRepository() contract.ChatSessionRepository {
	return &storeSessions{err: u.createErr}
}

func (u *storeUoW) ChatMessageRepository() contract.ChatMessageRepository {
	return &storeMessages{uow: u}
}

type storeSessions struct {
	contract.ChatSessionRepository
	err error
}

func (s *storeSessions) FindOne(context.Context, ...specification.Specification) (*entity.ChatSession, error) {
	return nil, nil
}

func (s *storeSessions) Create(context.Context, *entity.ChatSession) error { return s.err }

type storeMessages struct {
	contract.ChatMessageRepository
	uow *storeUoW
}

func (s *storeMessages) CreateBulk(_ context.Context, messages []*entity.ChatMessage) error {
	s.uow.stored = append(s.uow.stored, messages...)
	return nil
}

type storeFactory struct{ uow *storeUoW }

func (f storeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

func turnMessage(t *testing.T) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.TurnFinalizedMessage{
		ConversationId: uuid.New(),
		UserId:         uuid.New(),
		Query:          "What is S256?",
		AskedAt:        time.Now(),
		FinishedAt:     time.Now(),
		Answer:         stream.Message{ID: uuid.NewString(), Content: "A water bill.", State: stream.StateFinalized},
	})
	require.NoError(t, err)
	return message.NewMessage(uuid.NewString(), payload)
}

// settled reports "ack" or "nack" for a message processMessage has handled.
func settled(msg *message.Message) string {
	select {
	case <-msg.Acked():
		return "ack"
	case <-msg.Nacked():
		return "nack"
	default:
		return "pending"
	}
}

func TestProcessMessageSettlement(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		want      string
		committed bool
	}{
		{"stored", nil, "ack", true},
		{"conversation id taken", fmt.Errorf("create session: %w", gorm.ErrDuplicatedKey), "ack", false},
		{"foreign key", gorm.ErrForeignKeyViolated, "ack", false},
		{"connection lost", errors.New("driver: bad connection"), "nack", false},
		{"deadline", context.DeadlineExceeded, "nack", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := &storeUoW{createErr: tt.createErr}
			cs := NewConsumerService(nil, "turns", storeFactory{uow: uow}, logger.Nop()).(*consumerService)

			msg := turnMessage(t)
			cs.processMessage(context.Background(), msg)

			assert.Equal(t, tt.want, settled(msg))
			assert.Equal(t, tt.committed, uow.committed)
			if tt.committed {
				assert.Len(t, uow.stored, 2)
			}
		})
	}
}

func TestProcessMessageAcksUnreadablePayload(t *testing.T) {
	cs := NewConsumerService(nil, "turns", storeFactory{uow: &storeUoW{}}, logger.Nop()).(*consumerService)

	msg := message.NewMessage(uuid.NewString(), []byte("{not json"))
	cs.processMessage(context.Background(), msg)

	assert.Equal(t, "ack", settled(msg))
}
