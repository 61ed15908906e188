package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rukhmanov/kwadro-backend/logger"
	"github.com/rukhmanov/kwadro-backend/models"
	"github.com/rukhmanov/kwadro-backend/redis"
	"github.com/rukhmanov/kwadro-backend/services"
	"github.com/rukhmanov/kwadro-backend/telegram"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// Staff-attributed identities for messages originating server-side.
	adminUsername   = "Администратор"
	managerUsername = "Менеджер"

	autoReplyText = "Пожалуйста, оставьте номер телефона, и менеджер свяжется с вами в ближайшее время."
)

// Inbound event payloads. A message always names its session, so an
// explicit join is not a precondition for sending.
type joinSessionPayload struct {
	SessionID string `json:"sessionId"`
}

type messagePayload struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	IsAdmin   bool   `json:"isAdmin"`
	Phone     string `json:"phone"`
}

type adminMessagePayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatNumberPayload struct {
	ChatNumber int `json:"chatNumber"`
}

type newChatSessionPayload struct {
	SessionID string              `json:"sessionId"`
	Session   *models.ChatSession `json:"session"`
	Message   *models.ChatMessage `json:"message"`
}

// ChatWebSocketHandler is the realtime gateway: it upgrades connections,
// dispatches inbound events to the chat service, fans persisted messages
// out to the session's room and owns the delayed auto-reply timer.
//
// The auto-reply is a plain in-process timer. A restart inside the delay
// window silently drops the pending reply; it is a best-effort reminder,
// not a guaranteed one.
type ChatWebSocketHandler struct {
	chatService    *services.ChatService
	registry       *ChatRegistry
	notifier       *telegram.Client
	presence       *redis.RedisClient
	autoReplyDelay time.Duration

	timersMu sync.Mutex
	timers   map[string]*time.Timer // session token -> pending auto-reply
}

func NewChatWebSocketHandler(chatService *services.ChatService, notifier *telegram.Client, presence *redis.RedisClient, autoReplyDelay time.Duration) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		chatService:    chatService,
		registry:       NewChatRegistry(),
		notifier:       notifier,
		presence:       presence,
		autoReplyDelay: autoReplyDelay,
		timers:         make(map[string]*time.Timer),
	}
}

func (h *ChatWebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &ChatClient{
		ID:     uuid.New().String(),
		Conn:   ws,
		Send:   make(chan ChatEvent, 256),
		ctx:    ctx,
		cancel: cancel,
	}
	h.registry.Register(client)

	go h.writePump(client)
	h.readPump(client)
	return nil
}

func (h *ChatWebSocketHandler) readPump(client *ChatClient) {
	defer func() {
		client.cancel()
		sessionID, bound := h.registry.Unregister(client.ID)
		client.Conn.Close()
		if bound {
			h.removePresence(sessionID, client.ID)
		}
	}()

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var event struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := client.Conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read", zap.String("conn", client.ID), zap.Error(err))
			}
			break
		}
		h.handleEvent(client, event.Type, event.Payload)
	}
}

func (h *ChatWebSocketHandler) writePump(client *ChatClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case <-client.ctx.Done():
			return

		case event, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(event); err != nil {
				logger.Warn("websocket write", zap.String("conn", client.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *ChatWebSocketHandler) handleEvent(client *ChatClient, eventType string, raw json.RawMessage) {
	switch eventType {
	case "join-session":
		var payload joinSessionPayload
		if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" {
			return
		}
		h.handleJoinSession(client, payload)

	case "message":
		var payload messagePayload
		if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" || payload.Message == "" {
			return
		}
		h.handleMessage(client, payload)

	case "admin-message":
		var payload adminMessagePayload
		if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" || payload.Message == "" {
			return
		}
		h.handleAdminMessage(client, payload)
	}
}

// handleJoinSession binds the connection and replays history. Joining never
// creates a session: until the visitor has sent something there is no
// identity to disclose, so an unknown token gets an empty history and no
// chat number.
func (h *ChatWebSocketHandler) handleJoinSession(client *ChatClient, payload joinSessionPayload) {
	h.bind(client, payload.SessionID)

	messages, err := h.chatService.ListSessionMessages(payload.SessionID)
	if err != nil {
		logger.Error("list session messages", zap.Error(err))
		return
	}
	h.send(client, ChatEvent{Type: "messages", Payload: messages})

	session, err := h.chatService.GetSession(payload.SessionID)
	if err != nil {
		logger.Error("get session", zap.Error(err))
		return
	}
	if session == nil {
		return
	}
	number, err := h.chatService.ChatNumber(payload.SessionID)
	if err != nil {
		logger.Error("chat number", zap.Error(err))
		return
	}
	h.send(client, ChatEvent{Type: "chat-number", Payload: chatNumberPayload{ChatNumber: number}})
}

func (h *ChatWebSocketHandler) handleMessage(client *ChatClient, payload messagePayload) {
	// A message implicitly (re)binds its connection; the widget may send
	// without an explicit join after a reconnect.
	h.bind(client, payload.SessionID)

	username := payload.Username
	if username == "" {
		username = services.AnonymousUsername
	}

	message, err := h.chatService.AppendMessage(payload.SessionID, services.AppendMessageInput{
		Username: username,
		Message:  payload.Message,
		IsAdmin:  payload.IsAdmin,
		Phone:    payload.Phone,
	})
	if err != nil {
		logger.Error("append message", zap.String("session", payload.SessionID), zap.Error(err))
		return
	}

	// Persisted order == broadcast order: the fan-out happens on this same
	// goroutine, after the write returned.
	h.broadcastToRoom(payload.SessionID, ChatEvent{Type: "message", Payload: message})

	if message.IsAdmin {
		return
	}
	h.afterVisitorMessage(payload.SessionID, message)
}

// afterVisitorMessage handles the visitor-only side effects: the global
// staff notification, the telegram mirror and the one-shot auto-reply.
func (h *ChatWebSocketHandler) afterVisitorMessage(sessionID string, message *models.ChatMessage) {
	session, err := h.chatService.GetSession(sessionID)
	if err != nil || session == nil {
		logger.Error("refresh session after message", zap.String("session", sessionID), zap.Error(err))
		return
	}

	// Staff dashboards need global awareness, not room-scoped delivery.
	h.broadcastToAll(ChatEvent{Type: "new-chat-session", Payload: newChatSessionPayload{
		SessionID: sessionID,
		Session:   session,
		Message:   message,
	}})

	// Detached: a slow or failing bridge call structurally cannot delay
	// delivery to connected clients.
	go h.notifyTelegram(sessionID, message)

	count, err := h.chatService.CountVisitorMessages(sessionID)
	if err != nil {
		logger.Error("count visitor messages", zap.String("session", sessionID), zap.Error(err))
		return
	}
	if count == 1 {
		h.scheduleAutoReply(sessionID)
	}
}

func (h *ChatWebSocketHandler) handleAdminMessage(client *ChatClient, payload adminMessagePayload) {
	message, err := h.chatService.AppendMessage(payload.SessionID, services.AppendMessageInput{
		Username: adminUsername,
		Message:  payload.Message,
		IsAdmin:  true,
	})
	if err != nil {
		logger.Error("append admin message", zap.String("session", payload.SessionID), zap.Error(err))
		return
	}

	// Room gets the broadcast minus the sender; the sender gets a direct
	// echo so the staff UI reflects its own send without depending on room
	// membership or echo timing.
	event := ChatEvent{Type: "message", Payload: message}
	h.broadcastToRoom(payload.SessionID, event, client.ID)
	h.send(client, event)
}

func (h *ChatWebSocketHandler) bind(client *ChatClient, sessionID string) {
	if prev, ok := h.registry.SessionFor(client.ID); ok && prev != sessionID {
		h.removePresence(prev, client.ID)
	}
	if h.registry.Bind(client.ID, sessionID) {
		h.addPresence(sessionID, client.ID)
	}
}

// scheduleAutoReply arms the one-shot canned reply after the session's
// first visitor message. It is never rescheduled or debounced by later
// messages; it fires once even if the visitor keeps typing.
func (h *ChatWebSocketHandler) scheduleAutoReply(sessionID string) {
	h.timersMu.Lock()
	defer h.timersMu.Unlock()
	if _, pending := h.timers[sessionID]; pending {
		return
	}
	h.timers[sessionID] = time.AfterFunc(h.autoReplyDelay, func() {
		h.timersMu.Lock()
		delete(h.timers, sessionID)
		h.timersMu.Unlock()
		h.fireAutoReply(sessionID)
	})
}

// StopAutoReply cancels a pending reply, e.g. when staff closes a session
// before the timer fires.
func (h *ChatWebSocketHandler) StopAutoReply(sessionID string) {
	h.timersMu.Lock()
	defer h.timersMu.Unlock()
	if timer, ok := h.timers[sessionID]; ok {
		timer.Stop()
		delete(h.timers, sessionID)
	}
}

func (h *ChatWebSocketHandler) fireAutoReply(sessionID string) {
	message, err := h.chatService.AppendMessage(sessionID, services.AppendMessageInput{
		Username: managerUsername,
		Message:  autoReplyText,
		IsAdmin:  true,
	})
	if err != nil {
		logger.Error("append auto-reply", zap.String("session", sessionID), zap.Error(err))
		return
	}

	h.broadcastToRoom(sessionID, ChatEvent{Type: "message", Payload: message})

	session, err := h.chatService.GetSession(sessionID)
	if err != nil || session == nil {
		return
	}
	h.broadcastToAll(ChatEvent{Type: "new-chat-session", Payload: newChatSessionPayload{
		SessionID: sessionID,
		Session:   session,
		Message:   message,
	}})
}

func (h *ChatWebSocketHandler) notifyTelegram(sessionID string, message *models.ChatMessage) {
	if h.notifier == nil {
		return
	}
	number, err := h.chatService.ChatNumber(sessionID)
	if err != nil {
		logger.Error("chat number for telegram", zap.String("session", sessionID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := h.notifier.SendChatMessage(ctx, message.Username, message.Message, number, message.Phone); err != nil {
		logger.Error("telegram notify", zap.String("session", sessionID), zap.Error(err))
	}
}

func (h *ChatWebSocketHandler) broadcastToRoom(sessionID string, event ChatEvent, exceptIDs ...string) {
	except := make(map[string]bool, len(exceptIDs))
	for _, id := range exceptIDs {
		except[id] = true
	}
	for _, client := range h.registry.RoomClients(sessionID) {
		if except[client.ID] {
			continue
		}
		h.send(client, event)
	}
}

func (h *ChatWebSocketHandler) broadcastToAll(event ChatEvent) {
	for _, client := range h.registry.AllClients() {
		h.send(client, event)
	}
}

// send enqueues without blocking; a connection whose buffer is full is
// considered dead and torn down.
func (h *ChatWebSocketHandler) send(client *ChatClient, event ChatEvent) {
	select {
	case client.Send <- event:
	case <-client.ctx.Done():
	default:
		logger.Warn("client send buffer full, disconnecting", zap.String("conn", client.ID))
		client.cancel()
	}
}

func (h *ChatWebSocketHandler) addPresence(sessionID, connID string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.presence.AddOnline(ctx, sessionID, connID); err != nil {
		logger.Warn("presence add", zap.Error(err))
	}
}

func (h *ChatWebSocketHandler) removePresence(sessionID, connID string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.presence.RemoveOnline(ctx, sessionID, connID); err != nil {
		logger.Warn("presence remove", zap.Error(err))
	}
}
