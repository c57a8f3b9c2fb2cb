package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/services"
)

type SettingsHandler struct {
	settings *services.SettingsState
}

func NewSettingsHandler(settings *services.SettingsState) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings godoc
// @Summary     Get product settings
// @Description Reloads the product settings from the database
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProductSettings
// @Failure     401 {object} models.ErrorResponse
// @Router      /admin/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Fetch(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary     Update product settings
// @Description Applies a partial update; omitted fields are left unchanged
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SettingsPatch true "Fields to change"
// @Success     200 {object} models.ProductSettings
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /admin/settings [patch]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ToggleQuickDiscount godoc
// @Summary     Toggle quick discount
// @Description Clears the discount, or sets it to 10% of the price when there is none
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProductSettings
// @Router      /admin/settings/quick-discount [post]
func (h *SettingsHandler) ToggleQuickDiscount(c *gin.Context) {
	settings, err := h.settings.ToggleQuickDiscount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
