package repository

import (
	"context"
	"errors"
	"time"

	"solo-drops-backend/internal/models"
)

var ErrNotFound = errors.New("not found")

// SettingsRepository owns the single product_settings row.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*models.ProductSettings, error)
	UpdateSettings(ctx context.Context, id string, patch models.SettingsPatch) (*models.ProductSettings, error)
}

// OrderRepository persists customer orders.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order models.NewOrder) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// GetOrderByPayPalOrderID returns the newest order paid by paypalOrderID.
	GetOrderByPayPalOrderID(ctx context.Context, paypalOrderID string) (*models.Order, error)
	// ListOrders returns every order, newest first.
	ListOrders(ctx context.Context) ([]models.Order, error)
	// ListOrdersByEmail matches email case-insensitively, newest first.
	ListOrdersByEmail(ctx context.Context, email string) ([]models.TrackedOrder, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, note string) (*models.Order, error)
	UpdateTrackingNumber(ctx context.Context, id, trackingNumber string) (*models.Order, error)
}

// CatalogRepository holds the admin-managed storefront lists. Lists are
// ordered by creation time ascending.
type CatalogRepository interface {
	ListPromotionalImages(ctx context.Context) ([]models.PromotionalImage, error)
	CreatePromotionalImage(ctx context.Context, imageURL, altText string) (*models.PromotionalImage, error)
	DeletePromotionalImage(ctx context.Context, id string) error
	ListSpecifications(ctx context.Context) ([]models.Specification, error)
	CreateSpecification(ctx context.Context, spec models.Specification) (*models.Specification, error)
	DeleteSpecification(ctx context.Context, id string) error
}

// SettlementRepository tracks payments from before capture until an order
// row exists for them.
type SettlementRepository interface {
	// CreateSettlement is idempotent on PayPalOrderID: an existing record is
	// returned unchanged.
	CreateSettlement(ctx context.Context, s models.Settlement) (*models.Settlement, error)
	GetSettlement(ctx context.Context, paypalOrderID string) (*models.Settlement, error)
	UpdateSettlement(ctx context.Context, paypalOrderID string, update models.SettlementUpdate) (*models.Settlement, error)
	ListSettlements(ctx context.Context, status models.SettlementStatus, olderThan time.Time) ([]models.Settlement, error)
}

type Store interface {
	SettingsRepository
	OrderRepository
	CatalogRepository
	SettlementRepository
}
