package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rukhmanov/kwadro-backend/config"
	"github.com/rukhmanov/kwadro-backend/logger"
)

const apiBase = "https://api.telegram.org/bot"

// Client talks to the Bot API over plain HTTP. It is the notification
// bridge for the site chat: visitor messages are mirrored into the staff
// group. Callers on the hot path fire it from a goroutine and only log
// failures.
type Client struct {
	apiURL  string
	groupID string
	http    *http.Client
}

func NewClient(cfg *config.TelegramConfig) *Client {
	return &Client{
		apiURL:  apiBase + cfg.BotToken,
		groupID: cfg.GroupID,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a bot token was configured. With no token the
// bridge degrades to a no-op and chat keeps working.
func (c *Client) Enabled() bool {
	return c.apiURL != apiBase
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		From      *struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID       int64  `json:"id"`
			Type     string `json:"type"`
			Title    string `json:"title"`
			Username string `json:"username"`
		} `json:"chat"`
		Date int64  `json:"date"`
		Text string `json:"text"`
	} `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (*apiResponse, error) {
	endpoint := c.apiURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if !apiResp.OK {
		return &apiResp, fmt.Errorf("telegram api error (code %d): %s", apiResp.ErrorCode, apiResp.Description)
	}
	return &apiResp, nil
}

// GetMe validates the token on startup.
func (c *Client) GetMe(ctx context.Context) (string, error) {
	resp, err := c.call(ctx, "getMe", nil)
	if err != nil {
		return "", err
	}
	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(resp.Result, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}

func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("timeout", "10")
	resp, err := c.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) SendMessageToGroup(ctx context.Context, text string) error {
	if !c.Enabled() {
		logger.Warn("TELEGRAM_BOT_TOKEN не установлен, сообщение не отправлено")
		return nil
	}
	if c.groupID == "" {
		logger.Warn("TELEGRAM_GROUP_ID не установлен, сообщение не отправлено")
		return nil
	}
	params := url.Values{}
	params.Set("chat_id", c.groupID)
	params.Set("text", text)
	params.Set("parse_mode", "HTML")
	_, err := c.call(ctx, "sendMessage", params)
	return err
}

// SendChatMessage mirrors a site-chat message into the staff group. The
// chat number tags the visitor so staff can tell sessions apart.
func (c *Client) SendChatMessage(ctx context.Context, username, message string, chatNumber int, phone string) error {
	displayName := fmt.Sprintf("%s #%d", username, chatNumber)

	var b strings.Builder
	b.WriteString("<b>💬 Новое сообщение из чата сайта</b>\n\n")
	b.WriteString("<b>Пользователь:</b> " + escapeHTML(displayName) + "\n")
	if phone != "" {
		b.WriteString("<b>Телефон:</b> " + escapeHTML(phone) + "\n")
	}
	b.WriteString("<b>Сообщение:</b>\n" + escapeHTML(message))

	return c.SendMessageToGroup(ctx, b.String())
}

// SendOrderNotification posts a new order summary to the staff group.
func (c *Client) SendOrderNotification(ctx context.Context, orderID uint, name, phone string, total float64, items []string) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>🛒 Новый заказ #%d</b>\n\n", orderID))
	b.WriteString("<b>Имя:</b> " + escapeHTML(name) + "\n")
	if phone != "" {
		b.WriteString("<b>Телефон:</b> " + escapeHTML(phone) + "\n")
	}
	b.WriteString(fmt.Sprintf("<b>Сумма:</b> %.2f ₽\n", total))
	if len(items) > 0 {
		b.WriteString("<b>Состав:</b>\n")
		for _, item := range items {
			b.WriteString("• " + escapeHTML(item) + "\n")
		}
	}
	return c.SendMessageToGroup(ctx, b.String())
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

func escapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
