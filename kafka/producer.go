package kafka

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/rukhmanov/kwadro-backend/logger"
	"github.com/rukhmanov/kwadro-backend/models"
)

// OrderEvent is the wire form of an order on the events topic.
type OrderEvent struct {
	OrderID   uint     `json:"order_id"`
	SessionID string   `json:"session_id"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Total     float64  `json:"total"`
	Items     []string `json:"items"`
	Timestamp int64    `json:"timestamp"`
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(brokers []string, topic string, cfg *sarama.Config) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: producer, topic: topic}, nil
}

// PublishOrderCreated implements services.OrderEventPublisher.
func (p *Producer) PublishOrderCreated(order *models.Order) error {
	event := OrderEvent{
		OrderID:   order.ID,
		SessionID: order.SessionID,
		Name:      order.Name,
		Phone:     order.Phone,
		Total:     order.Total,
		Timestamp: time.Now().Unix(),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, itemLine(item))
	}
	return p.send(strconv.FormatUint(uint64(order.ID), 10), event)
}

func (p *Producer) send(key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(jsonValue),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	logger.Debug("order event sent",
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}

func itemLine(item models.OrderItem) string {
	return item.Name + " × " + strconv.Itoa(item.Quantity)
}
