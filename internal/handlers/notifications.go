package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/notify"
)

type NotificationHandler struct {
	notifier notify.Notifier
	secret   string
}

// NewNotificationHandler serves the confirmation endpoint. Callers must send
// secret in the notify.SecretHeader header; an empty secret disables it.
func NewNotificationHandler(notifier notify.Notifier, secret string) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, secret: secret}
}

// SendOrderConfirmation godoc
// @Summary     Send order confirmation
// @Description Sends the order confirmation email through Mailgun
// @Tags        notifications
// @Accept      json
// @Produce     json
// @Param       X-Notification-Secret header string true "Shared secret"
// @Param       request body models.OrderConfirmation true "Confirmation"
// @Success     200 {object} map[string]string
// @Failure     401 {object} map[string]string
// @Failure     405 {string} string "Method Not Allowed"
// @Failure     500 {object} map[string]string
// @Failure     503 {object} map[string]string
// @Router      /notifications/order-confirmation [post]
func (h *NotificationHandler) SendOrderConfirmation(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if h.secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notifications are not configured"})
		return
	}
	given := c.GetHeader(notify.SecretHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var msg models.OrderConfirmation
	if err := c.ShouldBindJSON(&msg); err != nil {
		slog.Error("error sending email", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}

	if err := h.notifier.SendOrderConfirmation(c.Request.Context(), msg); err != nil {
		slog.Error("error sending email", slog.String("order_number", msg.OrderNumber), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}
