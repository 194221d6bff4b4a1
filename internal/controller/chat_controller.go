package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"civic-assistant-be/internal/dto"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/pkg/serverutils"
	"civic-assistant-be/internal/service"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	SubmitFeedback(ctx *fiber.Ctx) error
	GetConversations(ctx *fiber.Ctx) error
	GetConversation(ctx *fiber.Ctx) error
}

// SocketRoutes is the websocket side of /chat; it mounts under the same auth.
type SocketRoutes interface {
	RegisterRoutes(r fiber.Router)
}

type chatController struct {
	service service.IChatService
	auth    fiber.Handler
	socket  SocketRoutes
	logger  logger.ILogger
}

func NewChatController(service service.IChatService, auth fiber.Handler, socket SocketRoutes, log logger.ILogger) IChatController {
	return &chatController{service: service, auth: auth, socket: socket, logger: log}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Use(c.auth)
	h.Post("", c.Chat)
	h.Post(":conversationId/cancel", c.Cancel)
	h.Get("conversations", c.GetConversations)
	h.Get("conversations/:conversationId", c.GetConversation)
	h.Patch("messages/:id/feedback", c.SubmitFeedback)
	if c.socket != nil {
		c.socket.RegisterRoutes(h)
	}
}

// HeaderConversationID names the conversation of a streamed answer.
const HeaderConversationID = "X-Conversation-Id"

// Chat answers with one JSON body, or with an SSE stream when stream is true.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if !req.StreamRequested() {
		res, err := c.service.Chat(ctx.UserContext(), userId, &req)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
	}

	// the body starts before StreamChat returns, so a new conversation gets its id here
	if req.ConversationId == "" {
		req.ConversationId = uuid.NewString()
	}
	ctx.Set(HeaderConversationID, req.ConversationId)
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// the writer runs after this handler returns, so it must not touch ctx
	parent := context.WithoutCancel(ctx.UserContext())
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		sink := &sseSink{w: w}
		if _, err := c.service.StreamChat(parent, userId, &req, sink); err != nil {
			c.logger.Warn("ChatController", "stream rejected", map[string]interface{}{"user_id": userId, "error": err.Error()})
			_ = sink.Send(stream.Event{Type: stream.EventError, Error: err.Error()})
		}
		sink.close()
	})
	return nil
}

func (c *chatController) Cancel(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(ctx.Params("conversationId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversationId")
	}

	res, err := c.service.CancelTurn(ctx.UserContext(), userId, conversationId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success cancel turn", res))
}

func (c *chatController) SubmitFeedback(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	messageId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid message id")
	}

	var req dto.SubmitFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SubmitFeedback(ctx.UserContext(), userId, messageId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success submit feedback", nil))
}

func (c *chatController) GetConversations(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetConversations(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get conversations", res))
}

func (c *chatController) GetConversation(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(ctx.Params("conversationId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversationId")
	}

	res, err := c.service.GetConversation(ctx.UserContext(), userId, conversationId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get conversation", res))
}

// sseSink writes each event as one data line. A failed flush means the
// client left.
type sseSink struct {
	w *bufio.Writer
}

func (s *sseSink) Send(ev stream.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *sseSink) close() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	_ = s.w.Flush()
}
