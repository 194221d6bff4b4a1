package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"civic-assistant-be/internal/dto"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/pkg/serverutils"
	"civic-assistant-be/internal/service"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

type fakeChatService struct {
	service.IChatService
	userId         uuid.UUID
	conversationId string
	cancelled      uuid.UUID
	feedback  string
}

func (f *fakeChatService) StreamChat(_ context.Context, userId uuid.UUID, req *dto.ChatRequest, sink stream.Sink) (*dto.ChatResponse, error) {
	f.userId = userId
	f.conversationId = req.ConversationId
	msg := &stream.Message{ID: "m1", Content: "S256 is...", State: stream.StateFinalized}
	_ = sink.Send(stream.Event{Type: stream.EventStatus, ConversationID: req.ConversationId, MessageID: "m1", Status: "Looking that up..."})
	_ = sink.Send(stream.Event{Type: stream.EventDelta, MessageID: "m1", Delta: "S256 is..."})
	_ = sink.Send(stream.Event{Type: stream.EventDone, MessageID: "m1", Message: msg})
	return &dto.ChatResponse{ConversationId: "c1", Message: msg}, nil
}

func (f *fakeChatService) Chat(_ context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	f.userId = userId
	return &dto.ChatResponse{ConversationId: "c1", Message: &stream.Message{ID: "m1", Content: "whole", State: stream.StateFinalized}}, nil
}

func (f *fakeChatService) CancelTurn(_ context.Context, _ uuid.UUID, conversationId uuid.UUID) (*dto.CancelTurnResponse, error) {
	f.cancelled = conversationId
	return &dto.CancelTurnResponse{Cancelled: true}, nil
}

func (f *fakeChatService) SubmitFeedback(_ context.Context, _ uuid.UUID, _ uuid.UUID, req *dto.SubmitFeedbackRequest) error {
	f.feedback = req.Feedback
	return nil
}

func newTestApp(svc service.IChatService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewChatController(svc, serverutils.NewJwtMiddleware(testSecret), nil, logger.Nop()).RegisterRoutes(app.Group("/api"))
	return app
}

func authorized(t *testing.T, method, target, body string, userId uuid.UUID) *http.Request {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userId.String()}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChatStreamsServerSentEvents(t *testing.T) {
	svc := &fakeChatService{}
	userId := uuid.New()

	resp, err := newTestApp(svc).Test(authorized(t, "POST", "/api/chat", `{"prompt":"Tell me about S256","type":"chat","stream":true}`, userId), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var types []stream.EventType
	frames := strings.Split(strings.TrimSpace(string(raw)), "\n\n")
	require.NotEmpty(t, frames)
	assert.Equal(t, "data: [DONE]", frames[len(frames)-1])
	for _, frame := range frames[:len(frames)-1] {
		var ev stream.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		types = append(types, ev.Type)
	}
	assert.Equal(t, []stream.EventType{stream.EventStatus, stream.EventDelta, stream.EventDone}, types)
	assert.Equal(t, userId, svc.userId)
}

func TestChatStreamNamesConversation(t *testing.T) {
	existing := uuid.NewString()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"new conversation", `{"prompt":"hi","stream":true}`, ""},
		{"existing conversation", `{"prompt":"hi","stream":true,"conversationId":"` + existing + `"}`, existing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChatService{}
			resp, err := newTestApp(svc).Test(authorized(t, "POST", "/api/chat", tt.body, uuid.New()), -1)
			require.NoError(t, err)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			header := resp.Header.Get(HeaderConversationID)
			_, err = uuid.Parse(header)
			require.NoError(t, err)
			if tt.want != "" {
				assert.Equal(t, tt.want, header)
			}
			assert.Equal(t, header, svc.conversationId)

			first := strings.SplitN(string(raw), "\n\n", 2)[0]
			var ev stream.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(first, "data: ")), &ev))
			assert.Equal(t, stream.EventStatus, ev.Type)
			assert.Equal(t, header, ev.ConversationID)
		})
	}
}

func TestChatSingleShotJSON(t *testing.T) {
	svc := &fakeChatService{}

	resp, err := newTestApp(svc).Test(authorized(t, "POST", "/api/chat", `{"prompt":"hi","stream":false}`, uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body serverutils.Response[dto.ChatResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "whole", body.Data.Message.Content)
}

func TestChatValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing prompt", `{"stream":false}`, fiber.StatusBadRequest},
		{"bad type", `{"prompt":"hi","type":"image"}`, fiber.StatusBadRequest},
		{"bad history role", `{"prompt":"hi","context":{"previousMessages":[{"role":"robot","content":"x"}]}}`, fiber.StatusBadRequest},
		{"malformed json", `{"prompt":`, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newTestApp(&fakeChatService{}).Test(authorized(t, "POST", "/api/chat", tt.body, uuid.New()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestChatRequiresToken(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := newTestApp(&fakeChatService{}).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCancelRoute(t *testing.T) {
	svc := &fakeChatService{}
	conversationId := uuid.New()

	resp, err := newTestApp(svc).Test(authorized(t, "POST", "/api/chat/"+conversationId.String()+"/cancel", "", uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, conversationId, svc.cancelled)

	resp, err = newTestApp(svc).Test(authorized(t, "POST", "/api/chat/not-a-uuid/cancel", "", uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeedbackRoute(t *testing.T) {
	svc := &fakeChatService{}
	target := "/api/chat/messages/" + uuid.NewString() + "/feedback"

	resp, err := newTestApp(svc).Test(authorized(t, "PATCH", target, `{"feedback":"good"}`, uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "good", svc.feedback)

	resp, err = newTestApp(svc).Test(authorized(t, "PATCH", target, `{"feedback":"meh"}`, uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
