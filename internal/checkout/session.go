// Package checkout runs the shopper's path from shipping details to a
// recorded order, and reconciles payments that never reached an order.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/payment"
)

type Step string

const (
	StepShipping Step = "collecting_shipping"
	StepPayment  Step = "authorizing_payment"
	StepRecorded Step = "order_recorded"
)

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrInvalidStep     = errors.New("operation not allowed at this checkout step")
	ErrAlreadyPaid     = errors.New("checkout session is already paid")
)

// Messages shown to the shopper. Details stay in the logs.
const (
	MsgPaymentFailed      = "Payment failed. Please try again or contact support."
	MsgPaymentCancelled   = "Payment was cancelled. You can try again when you are ready."
	MsgOrderNotRecorded   = "Your payment was received but we could not record your order. Please contact support."
	MsgPaymentUnconfirmed = "We could not confirm your payment yet. Please try again in a moment; you will not be charged twice."
	MsgOrderRecorded      = "Thank you for your order!"
)

// Session is the server-side state of one checkout attempt.
type Session struct {
	ID              string                 `json:"id"`
	Step            Step                   `json:"step"`
	Shipping        models.ShippingDetails `json:"shipping"`
	Quantity        int                    `json:"quantity"`
	Amount          *decimal.Decimal       `json:"amount,omitempty"`
	PaymentState    payment.State          `json:"payment_state"`
	AuthorizationID string                 `json:"authorization_id,omitempty"`
	ApproveURL      string                 `json:"approve_url,omitempty"`
	OrderID         string                 `json:"order_id,omitempty"`
	Message         string                 `json:"message,omitempty"`
	Error           string                 `json:"error,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Response renders the session for the storefront.
func (s *Session) Response() models.CheckoutResponse {
	return models.CheckoutResponse{
		SessionID:       s.ID,
		Step:            string(s.Step),
		Shipping:        s.Shipping,
		Quantity:        s.Quantity,
		Amount:          s.Amount,
		PaymentState:    string(s.PaymentState),
		AuthorizationID: s.AuthorizationID,
		ApproveURL:      s.ApproveURL,
		OrderID:         s.OrderID,
		Message:         s.Message,
		Error:           s.Error,
	}
}

// SessionStore persists sessions between requests.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}
