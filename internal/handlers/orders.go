package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/services"
)

type OrdersHandler struct {
	orders *services.OrderService
}

func NewOrdersHandler(orders *services.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// ListOrders godoc
// @Summary     List orders
// @Description Returns every order, newest first
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.OrderListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /admin/orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders, Total: len(orders)})
}

// RequestTransition godoc
// @Summary     Request a status change
// @Description Checks the transition and returns a confirmation token valid for five minutes
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Param       request body models.TransitionRequest true "Target status"
// @Success     200 {object} models.TransitionResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/transitions [post]
func (h *OrdersHandler) RequestTransition(c *gin.Context) {
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	transition, err := h.orders.RequestTransition(c.Request.Context(), c.Param("order_id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transition)
}

// UpdateStatus godoc
// @Summary     Change order status
// @Description Applies a status change confirmed by a token from the transitions endpoint
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Param       request body models.UpdateStatusRequest true "Target status and confirmation token"
// @Success     200 {object} models.Order
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     428 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/status [patch]
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("order_id"), req.Status, req.ConfirmationToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateTracking godoc
// @Summary     Set tracking number
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Param       request body models.UpdateTrackingRequest true "Tracking number"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/tracking [patch]
func (h *OrdersHandler) UpdateTracking(c *gin.Context) {
	var req models.UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	order, err := h.orders.UpdateTracking(c.Request.Context(), c.Param("order_id"), req.TrackingNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
