package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shinyyama/dm-backend/internal/model"
)

const TypeMessageCreated = "message.created"

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Message    *model.Message `json:"message"`
}

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer Writer
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func NewPublisher(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

// PublishMessageCreated keys by recipient so one recipient's events stay ordered.
func (p *KafkaPublisher) PublishMessageCreated(ctx context.Context, msg *model.Message) error {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       TypeMessageCreated,
		OccurredAt: p.now().UTC(),
		Message:    msg,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(msg.Recipient.ID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeMessageCreated)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
