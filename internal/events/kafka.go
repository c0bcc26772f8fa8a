package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"exercisetracker/internal/middleware"
	"exercisetracker/internal/observability"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by user ID, so one user's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns an asynchronous publisher for topic on brokers.
// Delivery failures are logged and counted; they never fail the caller.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		Completion:             reportDelivery,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func newMessage(event Event) (kafka.Message, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}

func reportDelivery(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		eventType := "unknown"
		for _, h := range m.Headers {
			if h.Key == "event-type" {
				eventType = string(h.Value)
			}
		}
		observability.EventPublishFailures.WithLabelValues(eventType).Inc()
	}
	middleware.Logger.Error("failed to deliver events",
		slog.Int("count", len(messages)),
		slog.String("error", err.Error()),
	)
}
