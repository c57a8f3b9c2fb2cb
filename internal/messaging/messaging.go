package messaging

import (
	"context"
	"time"

	"solo-drops-backend/internal/models"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// OrderEvent is published whenever an order is recorded or changes status.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"order_id"`
	Status     models.OrderStatus `json:"status"`
	Previous   models.OrderStatus `json:"previous_status,omitempty"`
	Email      string             `json:"email,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type noop struct{}

// NewNoop returns a publisher that drops every event.
func NewNoop() Publisher {
	return noop{}
}

func (noop) PublishEvent(context.Context, string, string, any) error {
	return nil
}
