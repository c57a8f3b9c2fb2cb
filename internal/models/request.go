package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ShippingRequest struct {
	Shipping ShippingDetails `json:"shipping"`
	// Quantity defaults to 1 when omitted.
	Quantity int `json:"quantity,omitempty" example:"1"`
}

type ApproveRequest struct {
	AuthorizationID string `json:"authorization_id" binding:"required"`
}

type PaymentErrorRequest struct {
	Reason string `json:"reason"`
}

type TransitionRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

type UpdateStatusRequest struct {
	Status            OrderStatus `json:"status" binding:"required"`
	ConfirmationToken string      `json:"confirmation_token"`
}

type UpdateTrackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

type CreatePromotionalImageRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
	AltText  string `json:"alt_text"`
}

type CreateSpecificationRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Icon        SpecIcon `json:"icon" binding:"required"`
}

// OrderConfirmation is the body accepted by the notification endpoint.
type OrderConfirmation struct {
	CustomerName string          `json:"customerName"`
	OrderNumber  string          `json:"orderNumber"`
	Amount       decimal.Decimal `json:"amount"`
	Email        string          `json:"email"`
}

// MarshalJSON writes Amount as a JSON number with two decimals.
func (c OrderConfirmation) MarshalJSON() ([]byte, error) {
	type plain OrderConfirmation
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain: plain(c), Amount: json.Number(c.Amount.StringFixed(2))})
}
