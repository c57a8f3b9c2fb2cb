package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/services"
)

type TrackingHandler struct {
	orders *services.OrderService
}

func NewTrackingHandler(orders *services.OrderService) *TrackingHandler {
	return &TrackingHandler{orders: orders}
}

// Track godoc
// @Summary     Track orders
// @Description Lists a customer's orders by email (case-insensitive), newest first
// @Tags        tracking
// @Produce     json
// @Param       email query string true "Customer email"
// @Success     200 {object} models.TrackingResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /track [get]
func (h *TrackingHandler) Track(c *gin.Context) {
	orders, err := h.orders.Track(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TrackingResponse{Orders: orders})
}
