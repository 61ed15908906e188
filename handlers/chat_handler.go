package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rukhmanov/kwadro-backend/redis"
	"github.com/rukhmanov/kwadro-backend/services"
)

// ChatHandler is the thin REST surface the staff tooling consumes next to
// the websocket gateway.
type ChatHandler struct {
	chatService *services.ChatService
	presence    *redis.RedisClient
}

func NewChatHandler(chatService *services.ChatService, presence *redis.RedisClient) *ChatHandler {
	return &ChatHandler{chatService: chatService, presence: presence}
}

// GetAllSessions lists sessions with at least one message, newest activity
// first, with the live connection count per session when redis is up.
func (h *ChatHandler) GetAllSessions(c echo.Context) error {
	sessions, err := h.chatService.ListAllSessions()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch sessions",
		})
	}

	online := make(map[string]int64, len(sessions))
	if h.presence != nil {
		for _, session := range sessions {
			count, err := h.presence.CountOnline(c.Request().Context(), session.SessionID)
			if err != nil {
				continue
			}
			online[session.SessionID] = count
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"online":   online,
		"total":    len(sessions),
	})
}

func (h *ChatHandler) GetSessionMessages(c echo.Context) error {
	sessionID := c.Param("sessionId")
	messages, err := h.chatService.ListSessionMessages(sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch messages",
		})
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) MarkSessionRead(c echo.Context) error {
	sessionID := c.Param("sessionId")
	if err := h.chatService.MarkSessionRead(sessionID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to mark session read",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
