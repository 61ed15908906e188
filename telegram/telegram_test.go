package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rukhmanov/kwadro-backend/config"
)

type sentMessage struct {
	ChatID    string
	Text      string
	ParseMode string
}

// fakeBotAPI records sendMessage calls and answers like the Bot API.
func fakeBotAPI(t *testing.T) (*Client, *[]sentMessage) {
	t.Helper()
	var sent []sentMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/botTEST/sendMessage":
			q := r.URL.Query()
			sent = append(sent, sentMessage{
				ChatID:    q.Get("chat_id"),
				Text:      q.Get("text"),
				ParseMode: q.Get("parse_mode"),
			})
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": map[string]interface{}{}})
		case r.URL.Path == "/botTEST/getMe":
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": map[string]string{"username": "kwadro_bot"}})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error_code": 404, "description": "Not Found"})
		}
	}))
	t.Cleanup(srv.Close)

	client := &Client{
		apiURL:  srv.URL + "/botTEST",
		groupID: "-100200300",
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	return client, &sent
}

func TestGetMe(t *testing.T) {
	client, _ := fakeBotAPI(t)

	username, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kwadro_bot", username)
}

func TestSendChatMessage(t *testing.T) {
	client, sent := fakeBotAPI(t)

	err := client.SendChatMessage(context.Background(), "Гость", "есть <скидка> & доставка?", 7, "+7 900 000-00-00")
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	msg := (*sent)[0]
	assert.Equal(t, "-100200300", msg.ChatID)
	assert.Equal(t, "HTML", msg.ParseMode)
	assert.Contains(t, msg.Text, "Гость #7")
	assert.Contains(t, msg.Text, "+7 900 000-00-00")
	assert.Contains(t, msg.Text, "есть &lt;скидка&gt; &amp; доставка?")
	assert.NotContains(t, msg.Text, "<скидка>")
}

func TestSendOrderNotification(t *testing.T) {
	client, sent := fakeBotAPI(t)

	err := client.SendOrderNotification(context.Background(), 42, "Иван", "+7 900 000-00-00", 148990,
		[]string{"Квадроцикл ATV-200 × 1", "Шлем × 2"})
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	text := (*sent)[0].Text
	assert.Contains(t, text, "Новый заказ #42")
	assert.Contains(t, text, "Иван")
	assert.Contains(t, text, "148990.00")
	assert.Contains(t, text, "Шлем × 2")
}

func TestSendMessageToGroup_Unconfigured(t *testing.T) {
	// No token at all: the bridge degrades to a no-op instead of erroring
	// on the chat hot path.
	client := NewClient(&config.TelegramConfig{})
	assert.False(t, client.Enabled())
	assert.NoError(t, client.SendMessageToGroup(context.Background(), "ignored"))

	// Token but no group: same, the message is dropped with a warning.
	client, sent := fakeBotAPI(t)
	client.groupID = ""
	assert.NoError(t, client.SendMessageToGroup(context.Background(), "ignored"))
	assert.Empty(t, *sent)
}

func TestAPIError(t *testing.T) {
	client, _ := fakeBotAPI(t)

	_, err := client.call(context.Background(), "unknownMethod", url.Values{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
