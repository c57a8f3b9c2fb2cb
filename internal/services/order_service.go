package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"solo-drops-backend/internal/messaging"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/repository"
)

// DefaultPublishTimeout bounds how long a write waits on the event broker.
const DefaultPublishTimeout = 2 * time.Second

const (
	confirmationTTL   = 5 * time.Minute
	noteDateLayout    = "1/2/2006"
	confirmationIssue = "order-transition"
)

var (
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrConfirmationRequired = errors.New("status change requires a valid confirmation token")
)

type transitionClaims struct {
	OrderID string             `json:"order_id"`
	From    models.OrderStatus `json:"from"`
	To      models.OrderStatus `json:"to"`
	jwt.RegisteredClaims
}

type OrderService struct {
	orders    repository.OrderRepository
	publisher messaging.Publisher
	topic     string
	secret    []byte
	log       *slog.Logger
	now       func() time.Time

	publishTimeout time.Duration
}

func NewOrderService(
	orders repository.OrderRepository,
	publisher messaging.Publisher,
	topic string,
	confirmationSecret string,
	log *slog.Logger,
) *OrderService {
	if publisher == nil {
		publisher = messaging.NewNoop()
	}
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		topic:     topic,
		secret:    []byte(confirmationSecret),
		log:       log,
		now:       time.Now,

		publishTimeout: DefaultPublishTimeout,
	}
}

func (s *OrderService) SetPublishTimeout(d time.Duration) {
	s.publishTimeout = d
}

// SetClock replaces the time source used for notes and token expiry.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates and inserts an order, then announces it.
func (s *OrderService) Create(ctx context.Context, order models.NewOrder) (*models.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	created, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.publish(ctx, messaging.OrderEvent{
		Type:       messaging.EventOrderCreated,
		OrderID:    created.ID,
		Status:     created.Status,
		Email:      created.Email,
		OccurredAt: s.now().UTC(),
	})
	return created, nil
}

// ListAll returns every order, newest first. It always queries the store.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Track looks up a customer's orders by email, ignoring case.
func (s *OrderService) Track(ctx context.Context, email string) ([]models.TrackedOrder, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrInvalidInput)
	}
	orders, err := s.orders.ListOrdersByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up orders: %w", err)
	}
	return orders, nil
}

// RequestTransition checks that the order may move to status and returns a
// short-lived token that UpdateStatus requires.
func (s *OrderService) RequestTransition(ctx context.Context, id string, to models.OrderStatus) (*models.TransitionResponse, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", models.ErrInvalidInput, to)
	}
	if err := checkID("order", id); err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}

	now := s.now()
	expiresAt := now.Add(confirmationTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, transitionClaims{
		OrderID: order.ID,
		From:    order.Status,
		To:      to,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    confirmationIssue,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign confirmation token: %w", err)
	}

	return &models.TransitionResponse{
		OrderID:           order.ID,
		From:              order.Status,
		To:                to,
		Prompt:            fmt.Sprintf("Are you sure you want to mark this order as %s?", to),
		ConfirmationToken: signed,
		ExpiresAt:         expiresAt.UTC(),
	}, nil
}

// UpdateStatus moves an order to status. token must come from a
// RequestTransition call for the same order, current status and target.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, to models.OrderStatus, token string) (*models.Order, error) {
	if err := checkID("order", id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrConfirmationRequired
	}
	claims, err := s.parseConfirmation(token)
	if err != nil {
		return nil, err
	}
	if claims.OrderID != id || claims.To != to {
		return nil, fmt.Errorf("%w: token was issued for a different change", ErrConfirmationRequired)
	}

	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != claims.From {
		return nil, fmt.Errorf("%w: order is now %s", ErrConfirmationRequired, order.Status)
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}

	updated, err := s.orders.UpdateOrderStatus(ctx, id, to, StatusNote(to, s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.publish(ctx, messaging.OrderEvent{
		Type:       messaging.EventOrderStatusChanged,
		OrderID:    updated.ID,
		Status:     updated.Status,
		Previous:   order.Status,
		Email:      updated.Email,
		OccurredAt: s.now().UTC(),
	})
	return updated, nil
}

// UpdateTracking sets the tracking number without touching the status.
func (s *OrderService) UpdateTracking(ctx context.Context, id, trackingNumber string) (*models.Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking number is required", models.ErrInvalidInput)
	}
	if err := checkID("order", id); err != nil {
		return nil, err
	}
	updated, err := s.orders.UpdateTrackingNumber(ctx, id, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to update tracking number: %w", err)
	}
	return updated, nil
}

// checkID rejects ids that cannot name a row, so a malformed path segment
// reads as a missing record rather than a database error.
func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %q: %w", kind, id, repository.ErrNotFound)
	}
	return nil
}

// StatusNote is the shipping note written alongside a status change, for
// example "Order shipped on 3/14/2025".
func StatusNote(status models.OrderStatus, at time.Time) string {
	return fmt.Sprintf("Order %s on %s", status, at.Format(noteDateLayout))
}

func (s *OrderService) parseConfirmation(tokenString string) (*transitionClaims, error) {
	claims := &transitionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(confirmationIssue),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrConfirmationRequired, err)
	}
	return claims, nil
}

// publish is best-effort. It outlives a cancelled request but never waits on
// the broker longer than the publish timeout.
func (s *OrderService) publish(ctx context.Context, event messaging.OrderEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishEvent(ctx, s.topic, event.OrderID, event); err != nil {
		s.log.Warn("failed to publish order event",
			slog.String("type", event.Type),
			slog.String("order_id", event.OrderID),
			slog.Any("error", err))
	}
}

// FindByPayment returns the order recorded for an external payment id.
func (s *OrderService) FindByPayment(ctx context.Context, paypalOrderID string) (*models.Order, error) {
	return s.orders.GetOrderByPayPalOrderID(ctx, paypalOrderID)
}
