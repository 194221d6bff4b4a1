package websocket

import (
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/pkg/serverutils"
	"civic-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const userIDLocal = "ws_user_id"

// ChatSocket serves GET /chat/ws: bidirectional streaming with explicit stop.
type ChatSocket struct {
	service service.IChatService
	logger  logger.ILogger
}

func NewChatSocket(svc service.IChatService, log logger.ILogger) *ChatSocket {
	return &ChatSocket{service: svc, logger: log}
}

// RegisterRoutes expects r to already carry the JWT middleware.
func (s *ChatSocket) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", s.upgrade, websocket.New(s.serve))
}

func (s *ChatSocket) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	ctx.Locals(userIDLocal, userId)
	return ctx.Next()
}

func (s *ChatSocket) serve(conn *websocket.Conn) {
	userId, _ := conn.Locals(userIDLocal).(uuid.UUID)
	client := newClient(conn, userId, s.service, s.logger)

	s.logger.Info("ChatSocket", "connected", map[string]interface{}{"user_id": userId})
	go client.writePump()
	client.readPump()
	s.logger.Info("ChatSocket", "disconnected", map[string]interface{}{"user_id": userId})
}
