package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shinyyama/dm-backend/internal/model"
)

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishMessageCreated(t *testing.T) {
	w := &captureWriter{}
	p := NewPublisher(w)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	msg := &model.Message{ID: 11, Content: "hi", Recipient: model.BaseUser{ID: 2}, Sender: model.BaseUser{ID: 1}}
	if err := p.PublishMessageCreated(context.Background(), msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages=%d", len(w.msgs))
	}
	km := w.msgs[0]
	if string(km.Key) != "2" {
		t.Fatalf("key=%s", km.Key)
	}
	var ev Event
	if err := json.Unmarshal(km.Value, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != TypeMessageCreated || ev.ID == "" || !ev.OccurredAt.Equal(fixed) {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Message == nil || ev.Message.ID != 11 || ev.Message.Content != "hi" {
		t.Fatalf("unexpected payload: %+v", ev.Message)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatal("close not forwarded")
	}
}
