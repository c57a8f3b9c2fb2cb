// Package payment defines the orchestrator the checkout workflow drives and
// the state machine of a single payment attempt.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// StatusCompleted is the only capture status treated as settled.
const StatusCompleted = "COMPLETED"

var (
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrInvalidState        = errors.New("invalid payment state transition")
	ErrInvalidAmount       = errors.New("invalid payment amount")
	// ErrDeclined marks a provider response that definitely rejected the
	// request. Any other error leaves the outcome unknown.
	ErrDeclined = errors.New("payment declined by provider")
	// ErrCaptureUnconfirmed is returned when a capture may or may not have
	// gone through.
	ErrCaptureUnconfirmed = errors.New("payment capture could not be confirmed")
)

type Authorization struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approve_url,omitempty"`
}

type Capture struct {
	// ID is the external order id the capture belongs to.
	ID        string `json:"id"`
	Status    string `json:"status"`
	CaptureID string `json:"capture_id,omitempty"`
}

func (c Capture) Completed() bool {
	return c.Status == StatusCompleted
}

// Orchestrator wraps an external payment provider.
type Orchestrator interface {
	CreateAuthorization(ctx context.Context, amount decimal.Decimal) (*Authorization, error)
	Capture(ctx context.Context, authorizationID string) (*Capture, error)
	Cancel(ctx context.Context, authorizationID string) error
	Refund(ctx context.Context, captureID string, amount decimal.Decimal) error
	// Lookup reports the provider's current view of an authorization. Status
	// is StatusCompleted once it has been captured.
	Lookup(ctx context.Context, authorizationID string) (*Capture, error)
}

// Total computes (price - discount) * quantity rounded to cents.
func Total(price, discount decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidAmount, quantity)
	}
	return price.Sub(discount).Mul(decimal.NewFromInt(int64(quantity))).Round(2), nil
}

// FormatAmount renders an amount the way the provider expects it.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
