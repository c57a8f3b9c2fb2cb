package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/messaging"
	"solo-drops-backend/internal/messaging/kafka"
	"solo-drops-backend/internal/models"
)

type recordingWriter struct {
	msgs   []kafkaGo.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestBroker_PublishEvent(t *testing.T) {
	w := &recordingWriter{}
	broker := kafka.NewBrokerWithWriter(w)

	event := messaging.OrderEvent{
		Type:       messaging.EventOrderStatusChanged,
		OrderID:    "order-1",
		Status:     models.StatusShipped,
		Previous:   models.StatusPaid,
		OccurredAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, broker.PublishEvent(context.Background(), "orders", "order-1", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "orders", msg.Topic)
	assert.Equal(t, "order-1", string(msg.Key))

	var got messaging.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, event, got)
	assert.Contains(t, string(msg.Value), `"previous_status":"paid"`)

	require.NoError(t, broker.Close())
	assert.True(t, w.closed)
}

func TestBroker_PublishEventError(t *testing.T) {
	w := &recordingWriter{err: errors.New("kafka: leader not available")}
	broker := kafka.NewBrokerWithWriter(w)

	err := broker.PublishEvent(context.Background(), "orders", "order-1", map[string]string{"a": "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish to orders")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestBroker_PublishEventMarshalError(t *testing.T) {
	w := &recordingWriter{}
	broker := kafka.NewBrokerWithWriter(w)

	err := broker.PublishEvent(context.Background(), "orders", "k", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal event")
	assert.Empty(t, w.msgs)
}
