package kafka

import (
	"strconv"
	"time"

	"github.com/IBM/sarama"
)

// EventInterceptor stamps every outgoing event with the producing service
// and a send timestamp, so consumers can measure pipeline lag.
type EventInterceptor struct{}

func NewEventInterceptor() *EventInterceptor {
	return &EventInterceptor{}
}

func (i *EventInterceptor) OnSend(msg *sarama.ProducerMessage) {
	msg.Headers = append(msg.Headers,
		sarama.RecordHeader{
			Key:   []byte("producer"),
			Value: []byte("kwadro-backend"),
		},
		sarama.RecordHeader{
			Key:   []byte("sent_at"),
			Value: []byte(strconv.FormatInt(time.Now().UnixMilli(), 10)),
		},
	)
}
