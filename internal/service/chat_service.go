package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"civic-assistant-be/internal/constant"
	"civic-assistant-be/internal/dto"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/repository/memory"
	"civic-assistant-be/internal/repository/specification"
	"civic-assistant-be/internal/repository/unitofwork"
	"civic-assistant-be/pkg/events"
	"civic-assistant-be/pkg/llm"
	"civic-assistant-be/pkg/rag/pipeline"
	"civic-assistant-be/pkg/rag/retrieval"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = fiber.NewError(fiber.StatusNotFound, "conversation not found")
	ErrMessageNotFound      = fiber.NewError(fiber.StatusNotFound, "message not found")
)

type IChatService interface {
	StreamChat(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest, sink stream.Sink) (*dto.ChatResponse, error)
	Chat(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error)
	CancelTurn(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*dto.CancelTurnResponse, error)
	SubmitFeedback(ctx context.Context, userId uuid.UUID, messageId uuid.UUID, req *dto.SubmitFeedbackRequest) error
	GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error)
	GetConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) ([]*dto.ConversationMessageResponse, error)
}

// TurnPreparer builds the grounded prompt of a turn.
type TurnPreparer interface {
	Prepare(ctx context.Context, q retrieval.Query, streaming bool) (*pipeline.Prepared, error)
}

type TurnDispatcher interface {
	Dispatch(ctx context.Context, prompt llm.Prompt, opts llm.DispatchOptions) (*llm.Response, error)
	WillStream(opts llm.DispatchOptions) bool
}

// CancelBroadcaster forwards a cancel to the instance that holds the turn.
type CancelBroadcaster interface {
	Broadcast(ctx context.Context, turnKey string) error
}

type ChatServiceOption func(*chatService)

func WithEventPublisher(p events.Publisher) ChatServiceOption {
	return func(s *chatService) {
		if p != nil {
			s.eventPublisher = p
		}
	}
}

func WithCancelBroadcaster(b CancelBroadcaster) ChatServiceOption {
	return func(s *chatService) { s.broadcaster = b }
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	turns            *memory.TurnRepository
	preparer         TurnPreparer
	dispatcher       TurnDispatcher
	consumer         *stream.Consumer
	publisherService IPublisherService
	eventPublisher   events.Publisher
	broadcaster      CancelBroadcaster
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	turns *memory.TurnRepository,
	preparer TurnPreparer,
	dispatcher TurnDispatcher,
	consumer *stream.Consumer,
	publisherService IPublisherService,
	log logger.ILogger,
	opts ...ChatServiceOption,
) IChatService {
	s := &chatService{
		uowFactory:       uowFactory,
		turns:            turns,
		preparer:         preparer,
		dispatcher:       dispatcher,
		consumer:         consumer,
		publisherService: publisherService,
		eventPublisher:   events.Nop,
		logger:           log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *chatService) StreamChat(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest, sink stream.Sink) (*dto.ChatResponse, error) {
	return s.runTurn(ctx, userId, req, req.StreamRequested(), sink)
}

// Chat runs a single-shot turn and returns the finished message.
func (s *chatService) Chat(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	discard := stream.SinkFunc(func(stream.Event) error { return nil })
	return s.runTurn(ctx, userId, req, false, discard)
}

func (s *chatService) runTurn(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest, streamRequested bool, sink stream.Sink) (*dto.ChatResponse, error) {
	conversationId, err := s.resolveConversation(ctx, userId, req.ConversationId)
	if err != nil {
		return nil, err
	}

	askedAt := time.Now()
	q := buildQuery(req)
	seq := userTurns(req.Context.PreviousMessages)

	sess := s.turns.Begin(ctx, turnKey(userId, conversationId), seq)
	defer s.turns.End(sess)

	status := stream.Event{
		Type:           stream.EventStatus,
		ConversationID: conversationId.String(),
		MessageID:      sess.Message().ID,
		Status:         stream.StatusPhrase(seq),
	}
	if err := sink.Send(status); err != nil {
		sess.Cancel()
	}

	opts := llm.DispatchOptions{Provider: req.Provider, Model: req.Model, StreamRequested: streamRequested}

	var msg *stream.Message
	prepared, err := s.preparer.Prepare(sess.Context(), q, s.dispatcher.WillStream(opts))
	if err != nil {
		msg = s.consumer.Fail(sess, err, sink)
	} else {
		resp, err := s.dispatcher.Dispatch(sess.Context(), prepared.Prompt.Request(), opts)
		if err != nil {
			s.logger.Error("ChatService", "dispatch failed", map[string]interface{}{
				"conversation_id": conversationId,
				"provider":        req.Provider,
				"model":           req.Model,
				"error":           err.Error(),
			})
			msg = s.consumer.Fail(sess, err, sink)
		} else {
			msg = s.consumer.Consume(sess, resp, req.Prompt, sink)
		}
	}

	s.publishTurn(ctx, userId, conversationId, req.Prompt, askedAt, msg)

	return &dto.ChatResponse{ConversationId: conversationId.String(), Message: msg}, nil
}

// resolveConversation accepts a new id or one the user already owns.
func (s *chatService) resolveConversation(ctx context.Context, userId uuid.UUID, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid conversationId")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return uuid.Nil, err
	}
	if session != nil && session.UserId != userId {
		return uuid.Nil, ErrConversationNotFound
	}
	return id, nil
}

// publishTurn hands the terminal message to persistence and analytics. The
// request may already be gone, so both run detached from its cancellation.
func (s *chatService) publishTurn(ctx context.Context, userId, conversationId uuid.UUID, query string, askedAt time.Time, msg *stream.Message) {
	ctx = context.WithoutCancel(ctx)
	finishedAt := time.Now()

	payload, err := json.Marshal(dto.TurnFinalizedMessage{
		ConversationId: conversationId,
		UserId:         userId,
		Query:          query,
		AskedAt:        askedAt,
		Answer:         *msg,
		FinishedAt:     finishedAt,
	})
	if err == nil {
		err = s.publisherService.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Error("ChatService", "failed to publish finished turn", map[string]interface{}{
			"conversation_id": conversationId,
			"message_id":      msg.ID,
			"error":           err.Error(),
		})
	}

	evt := events.TurnFinalized(conversationId.String(), msg.ID, string(msg.State), msg.Provider,
		len(msg.Citations), len(msg.Content), finishedAt.Sub(askedAt))
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("ChatService", "failed to publish turn event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *chatService) CancelTurn(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*dto.CancelTurnResponse, error) {
	key := turnKey(userId, conversationId)
	if s.turns.Cancel(key) {
		return &dto.CancelTurnResponse{Cancelled: true}, nil
	}
	if s.broadcaster == nil {
		return &dto.CancelTurnResponse{Cancelled: false}, nil
	}
	if err := s.broadcaster.Broadcast(ctx, key); err != nil {
		return nil, err
	}
	// whether a peer held the turn is unknown here
	return &dto.CancelTurnResponse{Forwarded: true}, nil
}

func (s *chatService) SubmitFeedback(ctx context.Context, userId uuid.UUID, messageId uuid.UUID, req *dto.SubmitFeedbackRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.ChatMessageRepository().FindOne(ctx,
		specification.ByID{ID: messageId},
		specification.MessageOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if msg == nil || msg.Role != constant.ChatMessageRoleAssistant {
		return ErrMessageNotFound
	}

	feedback := req.Feedback
	return uow.ChatMessageRepository().UpdateFeedback(ctx, messageId, &feedback)
}

func (s *chatService) GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationResponse, 0, len(sessions))
	for _, cs := range sessions {
		res = append(res, &dto.ConversationResponse{
			Id:        cs.Id,
			Title:     cs.Title,
			CreatedAt: cs.CreatedAt,
			UpdatedAt: cs.UpdatedAt,
		})
	}
	return res, nil
}

func (s *chatService) GetConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) ([]*dto.ConversationMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ID: session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.ConversationMessageResponse{
			Id:           m.Id,
			Role:         m.Role,
			Content:      m.Content,
			Citations:    m.Citations,
			WebCitations: m.WebCitations,
			Reasoning:    m.Reasoning,
			State:        m.State,
			Feedback:     m.Feedback,
			CreatedAt:    m.CreatedAt,
		})
	}
	return res, nil
}

func buildQuery(req *dto.ChatRequest) retrieval.Query {
	q := retrieval.Query{
		Text:          strings.TrimSpace(req.Prompt),
		SystemContext: strings.TrimSpace(req.Context.SystemContext),
	}
	for _, m := range req.Context.PreviousMessages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		q.History = append(q.History, retrieval.Turn{Role: m.Role, Text: m.Content})
	}
	if req.Entity != nil {
		q.Entity = &retrieval.EntityHint{Kind: retrieval.EntityKind(req.Entity.Kind), Name: req.Entity.Name}
	}
	return q
}

// userTurns numbers the turn; it also picks the status phrase.
func userTurns(history []dto.PreviousMessage) int {
	n := 0
	for _, m := range history {
		if m.Role == constant.ChatMessageRoleUser {
			n++
		}
	}
	return n
}

func turnKey(userId, conversationId uuid.UUID) string {
	return userId.String() + ":" + conversationId.String()
}
