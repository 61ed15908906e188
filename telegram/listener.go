package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rukhmanov/kwadro-backend/logger"
)

// Listener long-polls getUpdates and forwards group posts to the parser.
// It is a background content pipeline, deliberately kept out of the chat
// core: losing an update window costs a re-post, nothing more.
type Listener struct {
	client       *Client
	parser       *Parser
	lastUpdateID int64
	cancel       context.CancelFunc
}

func NewListener(client *Client, parser *Parser) *Listener {
	return &Listener{client: client, parser: parser}
}

func (l *Listener) Start() {
	if !l.client.Enabled() {
		logger.Warn("TELEGRAM_BOT_TOKEN не установлен, прослушивание Telegram отключено")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	checkCtx, checkCancel := context.WithTimeout(ctx, 10*time.Second)
	username, err := l.client.GetMe(checkCtx)
	checkCancel()
	if err != nil {
		logger.Error("ошибка при проверке бота, прослушивание отключено", zap.Error(err))
		return
	}
	logger.Info("Telegram бот запущен", zap.String("bot", "@"+username))

	go l.poll(ctx)
}

func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}

func (l *Listener) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := l.client.GetUpdates(ctx, l.lastUpdateID+1)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("ошибка при получении обновлений", zap.Error(err))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID > l.lastUpdateID {
				l.lastUpdateID = update.UpdateID
			}
			l.handleUpdate(update)
		}

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (l *Listener) handleUpdate(update Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	// Only group posts carry catalog templates.
	if msg.Chat.Type != "group" && msg.Chat.Type != "supergroup" {
		return
	}
	if l.parser.HandleMessage(msg.Text) {
		logger.Debug("обработано сообщение из группы",
			zap.String("chat", msg.Chat.Title),
			zap.Int64("update_id", update.UpdateID))
	}
}
