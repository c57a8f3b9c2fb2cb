package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"solo-drops-backend/internal/messaging"
)

// MessageWriter is the part of *kafkaGo.Writer the broker uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Broker publishes JSON events through one long-lived writer. The topic is
// set per message.
type Broker struct {
	writer MessageWriter
}

var _ messaging.Publisher = (*Broker)(nil)

func NewBroker(brokers []string) *Broker {
	return NewBrokerWithWriter(&kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Balancer:               &kafkaGo.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           2 * time.Second,
		MaxAttempts:            3,
		RequiredAcks:           kafkaGo.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func NewBrokerWithWriter(w MessageWriter) *Broker {
	return &Broker{writer: w}
}

func (b *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.writer.WriteMessages(ctx, kafkaGo.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (b *Broker) Close() error {
	return b.writer.Close()
}
