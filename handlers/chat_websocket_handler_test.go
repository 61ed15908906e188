package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rukhmanov/kwadro-backend/models"
	"github.com/rukhmanov/kwadro-backend/services"
)

type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newGatewayServer(t *testing.T, autoReplyDelay time.Duration) (*ChatWebSocketHandler, string) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrateAll(db))

	h := NewChatWebSocketHandler(services.NewChatService(db), nil, nil, autoReplyDelay)

	e := echo.New()
	e.GET("/ws/chat", h.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}))
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event wsEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func expectNoEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(wait))
	var event wsEvent
	err := conn.ReadJSON(&event)
	require.Error(t, err, "unexpected event %q", event.Type)
}

func TestWebSocket_JoinUnknownSession(t *testing.T) {
	_, url := newGatewayServer(t, time.Hour)
	conn := dial(t, url)

	sendEvent(t, conn, "join-session", map[string]string{"sessionId": "fresh-token"})

	event := readEvent(t, conn)
	assert.Equal(t, "messages", event.Type)
	var history []models.ChatMessage
	require.NoError(t, json.Unmarshal(event.Payload, &history))
	assert.Empty(t, history)

	// Joining alone creates nothing, so no chat number follows.
	expectNoEvent(t, conn, 300*time.Millisecond)
}

func TestWebSocket_JoinReplaysHistory(t *testing.T) {
	h, url := newGatewayServer(t, time.Hour)

	first := dial(t, url)
	sendEvent(t, first, "message", map[string]interface{}{
		"sessionId": "history-token",
		"message":   "Здравствуйте",
	})
	readEvent(t, first) // message
	readEvent(t, first) // new-chat-session
	h.StopAutoReply("history-token")

	// A reconnecting tab joins and gets the backlog plus its chat number.
	second := dial(t, url)
	sendEvent(t, second, "join-session", map[string]string{"sessionId": "history-token"})

	event := readEvent(t, second)
	require.Equal(t, "messages", event.Type)
	var history []models.ChatMessage
	require.NoError(t, json.Unmarshal(event.Payload, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Здравствуйте", history[0].Message)
	assert.Equal(t, services.AnonymousUsername, history[0].Username)

	event = readEvent(t, second)
	require.Equal(t, "chat-number", event.Type)
	var number chatNumberPayload
	require.NoError(t, json.Unmarshal(event.Payload, &number))
	assert.Equal(t, 1, number.ChatNumber)
}

func TestWebSocket_VisitorMessageFanout(t *testing.T) {
	_, url := newGatewayServer(t, 100*time.Millisecond)
	conn := dial(t, url)

	sendEvent(t, conn, "message", map[string]interface{}{
		"sessionId": "fanout-token",
		"message":   "Первое сообщение",
	})

	// The persisted message reaches the room before the staff notification.
	event := readEvent(t, conn)
	require.Equal(t, "message", event.Type)
	var message models.ChatMessage
	require.NoError(t, json.Unmarshal(event.Payload, &message))
	assert.Equal(t, "Первое сообщение", message.Message)
	assert.False(t, message.IsAdmin)

	event = readEvent(t, conn)
	require.Equal(t, "new-chat-session", event.Type)
	var notice newChatSessionPayload
	require.NoError(t, json.Unmarshal(event.Payload, &notice))
	assert.Equal(t, "fanout-token", notice.SessionID)
	require.NotNil(t, notice.Session)
	assert.True(t, notice.Session.HasUnreadMessages)

	// The delayed canned reply lands in the room afterwards.
	event = readEvent(t, conn)
	require.Equal(t, "message", event.Type)
	require.NoError(t, json.Unmarshal(event.Payload, &message))
	assert.Equal(t, managerUsername, message.Username)
	assert.Equal(t, autoReplyText, message.Message)
	assert.True(t, message.IsAdmin)
}

func TestWebSocket_AutoReplyFiresOnce(t *testing.T) {
	_, url := newGatewayServer(t, 200*time.Millisecond)
	conn := dial(t, url)

	// Several quick visitor messages must not stack or debounce replies.
	for i := 0; i < 3; i++ {
		sendEvent(t, conn, "message", map[string]interface{}{
			"sessionId": "burst-token",
			"message":   fmt.Sprintf("сообщение %d", i+1),
		})
	}

	deadline := time.Now().Add(2 * time.Second)
	replies := 0
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		var event wsEvent
		if err := conn.ReadJSON(&event); err != nil {
			break
		}
		if event.Type != "message" {
			continue
		}
		var message models.ChatMessage
		require.NoError(t, json.Unmarshal(event.Payload, &message))
		if message.Username == managerUsername {
			replies++
		}
	}
	assert.Equal(t, 1, replies)
}

func TestWebSocket_StopAutoReply(t *testing.T) {
	h, url := newGatewayServer(t, 300*time.Millisecond)
	conn := dial(t, url)

	sendEvent(t, conn, "message", map[string]interface{}{
		"sessionId": "stopped-token",
		"message":   "Здравствуйте",
	})
	readEvent(t, conn) // message
	readEvent(t, conn) // new-chat-session

	h.StopAutoReply("stopped-token")

	expectNoEvent(t, conn, 600*time.Millisecond)
}

func TestWebSocket_AdminEcho(t *testing.T) {
	h, url := newGatewayServer(t, time.Hour)

	visitor := dial(t, url)
	sendEvent(t, visitor, "message", map[string]interface{}{
		"sessionId": "echo-token",
		"message":   "вопрос",
	})
	readEvent(t, visitor) // message
	readEvent(t, visitor) // new-chat-session
	h.StopAutoReply("echo-token")

	admin := dial(t, url)
	sendEvent(t, admin, "join-session", map[string]string{"sessionId": "echo-token"})
	readEvent(t, admin) // messages
	readEvent(t, admin) // chat-number

	sendEvent(t, admin, "admin-message", map[string]string{
		"sessionId": "echo-token",
		"message":   "ответ",
	})

	// The visitor gets the room broadcast.
	event := readEvent(t, visitor)
	require.Equal(t, "message", event.Type)
	var message models.ChatMessage
	require.NoError(t, json.Unmarshal(event.Payload, &message))
	assert.Equal(t, adminUsername, message.Username)
	assert.Equal(t, "ответ", message.Message)
	assert.True(t, message.IsAdmin)

	// The sender gets exactly one copy, not a room echo plus a direct one.
	event = readEvent(t, admin)
	require.Equal(t, "message", event.Type)
	expectNoEvent(t, admin, 300*time.Millisecond)
}

func TestWebSocket_IgnoresMalformedEvents(t *testing.T) {
	_, url := newGatewayServer(t, time.Hour)
	conn := dial(t, url)

	sendEvent(t, conn, "message", map[string]interface{}{"sessionId": "", "message": "x"})
	sendEvent(t, conn, "message", map[string]interface{}{"sessionId": "tok", "message": ""})
	sendEvent(t, conn, "unknown-type", map[string]string{})

	expectNoEvent(t, conn, 300*time.Millisecond)
}
