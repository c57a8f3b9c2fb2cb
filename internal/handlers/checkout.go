package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/checkout"
	"solo-drops-backend/internal/models"
)

type CheckoutHandler struct {
	workflow *checkout.Workflow
}

func NewCheckoutHandler(workflow *checkout.Workflow) *CheckoutHandler {
	return &CheckoutHandler{workflow: workflow}
}

// respondSession writes the session. When err is set, the status code comes
// from err but the body still carries the session so the storefront can
// render the step it is on.
func respondSession(c *gin.Context, s *checkout.Session, err error) {
	if err != nil && s == nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	c.JSON(status, s.Response())
}

// StartSession godoc
// @Summary     Start checkout
// @Description Opens a checkout session at the shipping step
// @Tags        checkout
// @Produce     json
// @Success     201 {object} models.CheckoutResponse
// @Router      /checkout/sessions [post]
func (h *CheckoutHandler) StartSession(c *gin.Context) {
	s, err := h.workflow.Start(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Response())
}

// GetSession godoc
// @Summary     Get checkout session
// @Tags        checkout
// @Produce     json
// @Param       session_id path string true "Session ID"
// @Success     200 {object} models.CheckoutResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /checkout/sessions/{session_id} [get]
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	s, err := h.workflow.Get(c.Request.Context(), c.Param("session_id"))
	respondSession(c, s, err)
}

// SubmitShipping godoc
// @Summary     Submit shipping details
// @Description Validates the shipping form, prices the order and opens a payment authorization
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       session_id path string true "Session ID"
// @Param       request body models.ShippingRequest true "Shipping details and quantity"
// @Success     200 {object} models.CheckoutResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /checkout/sessions/{session_id}/shipping [post]
func (h *CheckoutHandler) SubmitShipping(c *gin.Context) {
	var req models.ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	s, err := h.workflow.SubmitShipping(c.Request.Context(), c.Param("session_id"), req.Shipping, req.Quantity)
	respondSession(c, s, err)
}

// Approve godoc
// @Summary     Approve payment
// @Description Captures the approved authorization and records the order
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       session_id path string true "Session ID"
// @Param       request body models.ApproveRequest true "Authorization returned by the payment provider"
// @Success     200 {object} models.CheckoutResponse
// @Failure     402 {object} models.CheckoutResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.CheckoutResponse
// @Failure     502 {object} models.CheckoutResponse
// @Router      /checkout/sessions/{session_id}/approve [post]
func (h *CheckoutHandler) Approve(c *gin.Context) {
	var req models.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	s, err := h.workflow.Approve(c.Request.Context(), c.Param("session_id"), req.AuthorizationID)
	respondSession(c, s, err)
}

// ReportError godoc
// @Summary     Report payment error
// @Description Records an error raised by the payment provider's checkout UI
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       session_id path string true "Session ID"
// @Param       request body models.PaymentErrorRequest false "Error reported by the provider"
// @Success     200 {object} models.CheckoutResponse
// @Router      /checkout/sessions/{session_id}/error [post]
func (h *CheckoutHandler) ReportError(c *gin.Context) {
	var req models.PaymentErrorRequest
	_ = c.ShouldBindJSON(&req)
	s, err := h.workflow.Fail(c.Request.Context(), c.Param("session_id"), req.Reason)
	respondSession(c, s, err)
}

// CancelPayment godoc
// @Summary     Cancel payment
// @Tags        checkout
// @Produce     json
// @Param       session_id path string true "Session ID"
// @Success     200 {object} models.CheckoutResponse
// @Router      /checkout/sessions/{session_id}/cancel [post]
func (h *CheckoutHandler) CancelPayment(c *gin.Context) {
	s, err := h.workflow.Cancel(c.Request.Context(), c.Param("session_id"))
	respondSession(c, s, err)
}

// Back godoc
// @Summary     Back to shipping
// @Description Returns to the shipping step keeping the entered details
// @Tags        checkout
// @Produce     json
// @Param       session_id path string true "Session ID"
// @Success     200 {object} models.CheckoutResponse
// @Router      /checkout/sessions/{session_id}/back [post]
func (h *CheckoutHandler) Back(c *gin.Context) {
	s, err := h.workflow.Back(c.Request.Context(), c.Param("session_id"))
	respondSession(c, s, err)
}

// Dismiss godoc
// @Summary     Dismiss confirmation
// @Description Discards a completed session after the shopper has seen the confirmation
// @Tags        checkout
// @Param       session_id path string true "Session ID"
// @Success     204
// @Failure     409 {object} models.ErrorResponse
// @Router      /checkout/sessions/{session_id} [delete]
func (h *CheckoutHandler) Dismiss(c *gin.Context) {
	if err := h.workflow.Dismiss(c.Request.Context(), c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
