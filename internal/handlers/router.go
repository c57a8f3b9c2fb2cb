package handlers

import (
	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/config"
	"solo-drops-backend/internal/middleware"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Health        *HealthHandler
	Storefront    *StorefrontHandler
	Tracking      *TrackingHandler
	Checkout      *CheckoutHandler
	Notifications *NotificationHandler
	Auth          *AuthHandler
	Settings      *SettingsHandler
	Orders        *OrdersHandler
	Catalog       *CatalogHandler
	Upload        *UploadHandler
}

// RegisterRoutes mounts the public API, and the admin API behind
// AuthMiddleware.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, h Handlers) {
	// Health check (no auth)
	router.GET("/health", h.Health.Check)

	api := router.Group("/api/v1")

	// Storefront and tracking
	api.GET("/storefront", h.Storefront.GetStorefront)
	api.GET("/track", h.Tracking.Track)

	// Checkout
	api.POST("/checkout/sessions", h.Checkout.StartSession)
	api.GET("/checkout/sessions/:session_id", h.Checkout.GetSession)
	api.DELETE("/checkout/sessions/:session_id", h.Checkout.Dismiss)
	api.POST("/checkout/sessions/:session_id/shipping", h.Checkout.SubmitShipping)
	api.POST("/checkout/sessions/:session_id/approve", h.Checkout.Approve)
	api.POST("/checkout/sessions/:session_id/error", h.Checkout.ReportError)
	api.POST("/checkout/sessions/:session_id/cancel", h.Checkout.CancelPayment)
	api.POST("/checkout/sessions/:session_id/back", h.Checkout.Back)

	// Any method, so the handler can answer 405 itself
	api.Any("/notifications/order-confirmation", h.Notifications.SendOrderConfirmation)

	// Admin login (no auth)
	api.POST("/admin/login", h.Auth.Login)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))

	admin.POST("/logout", h.Auth.Logout)

	// Product settings
	admin.GET("/settings", h.Settings.GetSettings)
	admin.PATCH("/settings", h.Settings.UpdateSettings)
	admin.POST("/settings/quick-discount", h.Settings.ToggleQuickDiscount)

	// Media and catalog
	admin.POST("/uploads", h.Upload.Upload)
	admin.GET("/promotional-images", h.Catalog.ListPromotionalImages)
	admin.POST("/promotional-images", h.Catalog.CreatePromotionalImage)
	admin.DELETE("/promotional-images/:id", h.Catalog.DeletePromotionalImage)
	admin.GET("/specifications", h.Catalog.ListSpecifications)
	admin.POST("/specifications", h.Catalog.CreateSpecification)
	admin.DELETE("/specifications/:id", h.Catalog.DeleteSpecification)

	// Orders
	admin.GET("/orders", h.Orders.ListOrders)
	admin.POST("/orders/:order_id/transitions", h.Orders.RequestTransition)
	admin.PATCH("/orders/:order_id/status", h.Orders.UpdateStatus)
	admin.PATCH("/orders/:order_id/tracking", h.Orders.UpdateTracking)
}
