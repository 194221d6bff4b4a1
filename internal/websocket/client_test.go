package websocket

import (
	"context"
	"sync"
	"testing"

	"civic-assistant-be/internal/dto"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/service"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatService blocks StreamChat until release is closed, when set.
type fakeChatService struct {
	service.IChatService

	started chan struct{}
	release chan struct{}

	mu        sync.Mutex
	cancelled []uuid.UUID
}

func (f *fakeChatService) StreamChat(_ context.Context, _ uuid.UUID, req *dto.ChatRequest, _ stream.Sink) (*dto.ChatResponse, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return &dto.ChatResponse{ConversationId: req.ConversationId}, nil
}

func (f *fakeChatService) CancelTurn(_ context.Context, _ uuid.UUID, conversationId uuid.UUID) (*dto.CancelTurnResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, conversationId)
	return &dto.CancelTurnResponse{Cancelled: true}, nil
}

func (f *fakeChatService) cancelCalls() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.cancelled...)
}

func TestCancelAllSkipsFinishedTurns(t *testing.T) {
	svc := &fakeChatService{}
	c := newClient(nil, uuid.New(), svc, logger.Nop())

	c.prompt(&dto.ChatRequest{Prompt: "Tell me about S256"})
	c.turns.Wait()

	c.cancelAll()

	assert.Empty(t, svc.cancelCalls())
}

func TestCancelAllStopsRunningTurn(t *testing.T) {
	svc := &fakeChatService{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := newClient(nil, uuid.New(), svc, logger.Nop())
	conversationId := uuid.New()

	c.prompt(&dto.ChatRequest{Prompt: "Tell me about S256", ConversationId: conversationId.String()})
	<-svc.started

	c.cancelAll()
	close(svc.release)
	c.turns.Wait()

	require.Len(t, svc.cancelCalls(), 1)
	assert.Equal(t, conversationId, svc.cancelCalls()[0])
	assert.Empty(t, c.running)
}

func TestPromptAssignsConversationId(t *testing.T) {
	svc := &fakeChatService{}
	c := newClient(nil, uuid.New(), svc, logger.Nop())
	req := &dto.ChatRequest{Prompt: "hi"}

	c.prompt(req)
	c.turns.Wait()

	_, err := uuid.Parse(req.ConversationId)
	assert.NoError(t, err)
	assert.Equal(t, req.ConversationId, c.conversation.String())
}
