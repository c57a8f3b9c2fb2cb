package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/payment"
	"solo-drops-backend/internal/services"
)

type StorefrontHandler struct {
	settings *services.SettingsState
	catalog  *services.CatalogService
}

func NewStorefrontHandler(settings *services.SettingsState, catalog *services.CatalogService) *StorefrontHandler {
	return &StorefrontHandler{settings: settings, catalog: catalog}
}

// GetStorefront godoc
// @Summary     Storefront
// @Description Product settings, gallery, promotional images and specifications for the product page
// @Tags        storefront
// @Produce     json
// @Success     200 {object} models.StorefrontResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /storefront [get]
func (h *StorefrontHandler) GetStorefront(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.settings.Get(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	promos, err := h.catalog.PromotionalImages(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	specs, err := h.catalog.Specifications(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StorefrontResponse{
		Product:           *product,
		DisplayPrice:      payment.FormatAmount(product.DisplayPrice()),
		Gallery:           product.Gallery(),
		PromotionalImages: promos,
		Specifications:    specs,
	})
}
