// Package notify delivers order confirmation emails.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/payment"
)

const (
	storeName = "Solo Drops"
	Subject   = "Order Confirmation - " + storeName

	// SecretHeader carries the shared secret the notification endpoint
	// requires.
	SecretHeader = "X-Notification-Secret"
)

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, msg models.OrderConfirmation) error
}

// HTTPGateway posts confirmations as JSON to a hosted endpoint, which sends
// the actual email.
type HTTPGateway struct {
	http   *resty.Client
	url    string
	secret string
}

func NewHTTPGateway(url, secret string) *HTTPGateway {
	return &HTTPGateway{
		http:   resty.New().SetTimeout(15 * time.Second),
		url:    url,
		secret: secret,
	}
}

func (g *HTTPGateway) SendOrderConfirmation(ctx context.Context, msg models.OrderConfirmation) error {
	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(SecretHeader, g.secret).
		SetBody(msg).
		Post(g.url)
	if err != nil {
		return fmt.Errorf("failed to call notification gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification gateway error (status %d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Mailgun sends confirmations through the Mailgun messages API.
type Mailgun struct {
	http   *resty.Client
	domain string
	from   string
}

func NewMailgun(baseURL, apiKey, domain, fromEmail string) *Mailgun {
	return &Mailgun{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetBasicAuth("api", apiKey).
			SetTimeout(15 * time.Second),
		domain: domain,
		from:   fromEmail,
	}
}

func (m *Mailgun) SendOrderConfirmation(ctx context.Context, msg models.OrderConfirmation) error {
	if strings.TrimSpace(msg.Email) == "" {
		return fmt.Errorf("%w: recipient email is required", models.ErrInvalidInput)
	}

	resp, err := m.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"from":    fmt.Sprintf("%s <%s>", storeName, m.from),
			"to":      msg.Email,
			"subject": Subject,
			"text":    Body(msg),
		}).
		Post(fmt.Sprintf("/v3/%s/messages", m.domain))
	if err != nil {
		return fmt.Errorf("failed to call mailgun: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mailgun error (status %d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Body renders the plain-text confirmation email.
func Body(msg models.OrderConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", msg.CustomerName)
	b.WriteString("Thank you for your order!\n\n")
	b.WriteString("Order Details:\n")
	fmt.Fprintf(&b, "Order Number: %s\n", msg.OrderNumber)
	fmt.Fprintf(&b, "Total Amount: $%s\n\n", payment.FormatAmount(msg.Amount))
	b.WriteString("We'll process your order shortly.\n\n")
	b.WriteString("Best regards,\n")
	b.WriteString(storeName + " Team\n")
	return b.String()
}

// Log only logs confirmations. It stands in when no mail provider is
// configured.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	if log == nil {
		log = slog.Default()
	}
	return &Log{log: log}
}

func (l *Log) SendOrderConfirmation(ctx context.Context, msg models.OrderConfirmation) error {
	l.log.Info("order confirmation not sent: no mail provider configured",
		slog.String("order_number", msg.OrderNumber),
		slog.String("email", msg.Email),
		slog.String("amount", payment.FormatAmount(msg.Amount)))
	return nil
}
