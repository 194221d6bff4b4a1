package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"civic-assistant-be/internal/dto"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/pkg/serverutils"
	"civic-assistant-be/internal/service"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var errClientGone = errors.New("websocket client gone")

// Client is one chat socket. Prompts run as turns in their own goroutines;
// a new prompt on the same conversation cancels the open turn.
type Client struct {
	conn    *websocket.Conn
	userId  uuid.UUID
	service service.IChatService
	logger  logger.ILogger

	send chan []byte
	done chan struct{}

	mu           sync.Mutex
	conversation uuid.UUID         // last conversation a prompt ran in
	running      map[uuid.UUID]int // turns still running per conversation
	turns        sync.WaitGroup
}

func newClient(conn *websocket.Conn, userId uuid.UUID, svc service.IChatService, log logger.ILogger) *Client {
	return &Client{
		conn:    conn,
		userId:  userId,
		service: svc,
		logger:  log,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		running: make(map[uuid.UUID]int),
	}
}

// Send implements stream.Sink. It fails once the socket is closed, which
// cancels the turn.
func (c *Client) Send(ev stream.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errClientGone
	}
}

// readPump reads client messages until the connection closes.
func (c *Client) readPump() {
	defer func() {
		close(c.done)
		c.cancelAll()
		c.turns.Wait()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("ChatSocket", "read failed", map[string]interface{}{"user_id": c.userId, "error": err.Error()})
			}
			return
		}
		c.handle(raw)
	}
}

func (c *Client) handle(raw []byte) {
	var msg dto.WsClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reject("malformed message")
		return
	}
	if err := serverutils.ValidateRequest(msg); err != nil {
		c.reject(err.Error())
		return
	}

	switch msg.Type {
	case "stop":
		c.stop(msg.Chat)
	case "prompt":
		if msg.Chat == nil {
			c.reject("prompt without chat")
			return
		}
		if err := serverutils.ValidateRequest(msg.Chat); err != nil {
			c.reject(err.Error())
			return
		}
		c.prompt(msg.Chat)
	}
}

func (c *Client) prompt(req *dto.ChatRequest) {
	if req.ConversationId == "" {
		req.ConversationId = uuid.NewString()
	}
	conversationId, _ := uuid.Parse(req.ConversationId)

	c.mu.Lock()
	c.conversation = conversationId
	c.running[conversationId]++
	c.mu.Unlock()

	c.turns.Add(1)
	go func() {
		defer c.turns.Done()
		defer c.finished(conversationId)
		if _, err := c.service.StreamChat(context.Background(), c.userId, req, c); err != nil {
			c.reject(err.Error())
		}
	}()
}

func (c *Client) stop(req *dto.ChatRequest) {
	c.mu.Lock()
	conversationId := c.conversation
	c.mu.Unlock()

	if req != nil && req.ConversationId != "" {
		if id, err := uuid.Parse(req.ConversationId); err == nil {
			conversationId = id
		}
	}
	if conversationId == uuid.Nil {
		return
	}
	if _, err := c.service.CancelTurn(context.Background(), c.userId, conversationId); err != nil {
		c.logger.Warn("ChatSocket", "stop failed", map[string]interface{}{"conversation_id": conversationId, "error": err.Error()})
	}
}

func (c *Client) finished(conversationId uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running[conversationId]--; c.running[conversationId] <= 0 {
		delete(c.running, conversationId)
	}
}

// cancelAll stops the turns this socket still has running, including ones
// blocked on a provider read. Finished conversations are left alone.
func (c *Client) cancelAll() {
	c.mu.Lock()
	ids := make([]uuid.UUID, 0, len(c.running))
	for id := range c.running {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		_, _ = c.service.CancelTurn(context.Background(), c.userId, id)
	}
}

func (c *Client) reject(reason string) {
	_ = c.Send(stream.Event{Type: stream.EventError, Error: reason})
}

// writePump writes queued events and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
