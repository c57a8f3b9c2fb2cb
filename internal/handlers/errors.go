package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/checkout"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/payment"
	"solo-drops-backend/internal/repository"
	"solo-drops-backend/internal/services"
	"solo-drops-backend/internal/supabase"
)

const msgTryAgain = "Something went wrong. Please try again or contact support."

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, payment.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, supabase.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, payment.ErrPaymentNotCompleted):
		return http.StatusPaymentRequired
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, checkout.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, checkout.ErrInvalidStep),
		errors.Is(err, checkout.ErrAlreadyPaid),
		errors.Is(err, payment.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, payment.ErrCaptureUnconfirmed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Internal errors are logged and
// replaced by a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err))
		c.JSON(status, models.ErrorResponse{Error: "internal error", Message: msgTryAgain})
		return
	}
	c.JSON(status, models.ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}
