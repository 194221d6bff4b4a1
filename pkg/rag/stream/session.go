package stream

import (
	"context"
	"strings"
	"sync"

	"civic-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// Session is owned by exactly one turn. It is never reused.
type Session struct {
	ID             string
	ConversationID string
	Seq            int

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	accumulated strings.Builder
	open        bool
	state       State
	message     *Message
}

// NewSession opens a session whose lifetime is bounded by parent.
func NewSession(parent context.Context, conversationID string, seq int) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Seq:            seq,
		ctx:            ctx,
		cancel:         cancel,
		open:           true,
		state:          StateCreated,
		message: &Message{
			ID:          uuid.NewString(),
			Role:        "assistant",
			IsStreaming: true,
			State:       StateCreated,
			Citations:   []entity.BillCitation{},
		},
	}
}

func (s *Session) Context() context.Context { return s.ctx }

// Cancel stops the turn. Safe to call from any goroutine, any number of times.
func (s *Session) Cancel() { s.cancel() }

// Cancelled reports whether the turn was stopped on purpose: explicit stop,
// a newer turn, or the caller going away.
func (s *Session) Cancelled() bool { return s.ctx.Err() != nil }

func (s *Session) Message() *Message { return s.message }

func (s *Session) Accumulated() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accumulated.String()
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) append(delta string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accumulated.WriteString(delta)
	return s.accumulated.String()
}

// transition moves to next unless the session already ended. It reports
// whether the move happened.
func (s *Session) transition(next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = next
	if next.Terminal() {
		s.open = false
	}
	return true
}
