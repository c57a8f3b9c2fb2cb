package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	// StatusPending is only found on orders written before capture-first
	// checkout; it behaves like StatusPaid.
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusShipped, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a persisted customer order.
type Order struct {
	ID             string      `json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	Country        string      `json:"country"`
	Address        string      `json:"address"`
	ZipCode        string      `json:"zip_code"`
	PayPalOrderID  string      `json:"paypal_order_id"`
	Status         OrderStatus `json:"status"`
	TrackingNumber *string     `json:"tracking_number,omitempty"`
	ShippingNotes  *string     `json:"shipping_notes,omitempty"`
}

func (o Order) CustomerName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// ShippingDetails is what the shopper types into the shipping form.
type ShippingDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	Address   string `json:"address"`
	ZipCode   string `json:"zip_code"`
}

// Validate checks presence only.
func (d ShippingDetails) Validate() error {
	required := []struct {
		name, value string
	}{
		{"first_name", d.FirstName},
		{"last_name", d.LastName},
		{"email", d.Email},
		{"phone", d.Phone},
		{"country", d.Country},
		{"address", d.Address},
		{"zip_code", d.ZipCode},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// NewOrder is the insert payload for an order.
type NewOrder struct {
	Shipping      ShippingDetails
	PayPalOrderID string
	Status        OrderStatus
}

func (n NewOrder) Validate() error {
	if err := n.Shipping.Validate(); err != nil {
		return err
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, n.Status)
	}
	return nil
}

// TrackedOrder is the projection returned to customers looking up orders
// by email.
type TrackedOrder struct {
	ID             string      `json:"id"`
	Status         OrderStatus `json:"status"`
	TrackingNumber *string     `json:"tracking_number"`
	CreatedAt      time.Time   `json:"created_at"`
}

type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCaptured  SettlementStatus = "captured"
	SettlementRecorded  SettlementStatus = "recorded"
	SettlementFailed    SettlementStatus = "failed"
	SettlementAbandoned SettlementStatus = "abandoned"
	SettlementRefunded  SettlementStatus = "refunded"
)

// Settlement links an external payment to the order it produced. It is
// written before capture so a charge without an order can be found later.
type Settlement struct {
	ID            string           `json:"id"`
	PayPalOrderID string           `json:"paypal_order_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	Status        SettlementStatus `json:"status"`
	CaptureID     *string          `json:"capture_id,omitempty"`
	OrderID       *string          `json:"order_id,omitempty"`
	Shipping      *ShippingDetails `json:"shipping,omitempty"`
	FailureReason *string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type SettlementUpdate struct {
	Status        SettlementStatus
	CaptureID     *string
	OrderID       *string
	FailureReason *string
}
