package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/rukhmanov/kwadro-backend/logger"
	"github.com/rukhmanov/kwadro-backend/telegram"
)

// OrderEventHandler forwards consumed order-created events to the
// Telegram group so managers see new orders without polling the admin
// panel.
type OrderEventHandler struct {
	notifier *telegram.Client
}

func NewOrderEventHandler(notifier *telegram.Client) *OrderEventHandler {
	return &OrderEventHandler{notifier: notifier}
}

func (h *OrderEventHandler) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// A malformed record will never parse; mark it and move on.
		logger.Error("unmarshal order event", zap.Error(err), zap.Int64("offset", message.Offset))
		return nil
	}

	logger.Info("order event received",
		zap.Uint("order_id", event.OrderID),
		zap.Float64("total", event.Total))

	if h.notifier == nil || !h.notifier.Enabled() {
		return nil
	}

	notifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return h.notifier.SendOrderNotification(notifyCtx, event.OrderID, event.Name, event.Phone, event.Total, event.Items)
}
