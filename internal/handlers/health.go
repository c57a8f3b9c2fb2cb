package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/repository"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports whether the storefront can serve its product page.
type HealthHandler struct {
	settings repository.SettingsRepository
}

func NewHealthHandler(settings repository.SettingsRepository) *HealthHandler {
	return &HealthHandler{settings: settings}
}

// Check godoc
// @Summary     Health check
// @Description Returns ok when the product settings can be read from the store
// @Tags        health
// @Accept      json
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Failure     503 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if _, err := h.settings.GetSettings(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.HealthResponse{
			Status: "unavailable",
			Store:  "unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Store: "ok"})
}
