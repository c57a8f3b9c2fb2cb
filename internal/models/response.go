package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

type StorefrontResponse struct {
	Product           ProductSettings    `json:"product"`
	DisplayPrice      string             `json:"display_price"`
	Gallery           []string           `json:"gallery"`
	PromotionalImages []PromotionalImage `json:"promotional_images"`
	Specifications    []Specification    `json:"specifications"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Email        string `json:"email"`
}

type CheckoutResponse struct {
	SessionID       string           `json:"session_id"`
	Step            string           `json:"step"`
	Shipping        ShippingDetails  `json:"shipping"`
	Quantity        int              `json:"quantity"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	PaymentState    string           `json:"payment_state,omitempty"`
	AuthorizationID string           `json:"authorization_id,omitempty"`
	ApproveURL      string           `json:"approve_url,omitempty"`
	OrderID         string           `json:"order_id,omitempty"`
	Message         string           `json:"message,omitempty"`
	Error           string           `json:"error,omitempty"`
}

type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

type TrackingResponse struct {
	Orders []TrackedOrder `json:"orders"`
}

type TransitionResponse struct {
	OrderID           string      `json:"order_id"`
	From              OrderStatus `json:"from"`
	To                OrderStatus `json:"to"`
	Prompt            string      `json:"prompt"`
	ConfirmationToken string      `json:"confirmation_token"`
	ExpiresAt         time.Time   `json:"expires_at"`
}

type UploadResponse struct {
	StoragePath string `json:"storage_path"`
	PublicURL   string `json:"public_url"`
}
