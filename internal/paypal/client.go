// Package paypal binds payment.Orchestrator to the PayPal Orders v2 REST API.
package paypal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"solo-drops-backend/internal/payment"
)

type Client struct {
	http         *resty.Client
	clientID     string
	clientSecret string
	currency     string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

var _ payment.Orchestrator = (*Client)(nil)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount amount `json:"amount"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Links         []link `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type refundRequest struct {
	Amount amount `json:"amount"`
}

// APIError is returned for any non-2xx PayPal response.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal %s failed: status %d, body: %s", e.Operation, e.StatusCode, e.Body)
}

// Unwrap reports 4xx answers as payment.ErrDeclined, except the ones PayPal
// uses for timeouts, conflicts and rate limits.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusConflict,
		e.StatusCode == http.StatusTooManyRequests:
		return nil
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return payment.ErrDeclined
	}
	return nil
}

func NewClient(baseURL, clientID, clientSecret, currency string) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	if currency == "" {
		currency = "USD"
	}

	return &Client{
		http:         rc,
		clientID:     clientID,
		clientSecret: clientSecret,
		currency:     currency,
		now:          time.Now,
	}
}

// token returns a cached OAuth2 client-credentials token, refreshing it a
// minute before it expires.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	var result tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&result).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("failed to request paypal token: %w", err)
	}
	if resp.IsError() {
		return "", &APIError{Operation: "token", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("paypal token response missing access_token")
	}

	c.accessToken = result.AccessToken
	c.expiresAt = c.now().Add(time.Duration(result.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func (c *Client) request(ctx context.Context, requestID string) (*resty.Request, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")
	if requestID != "" {
		// Makes retried POSTs idempotent on PayPal's side.
		req.SetHeader("PayPal-Request-Id", requestID)
	}
	return req, nil
}

// CreateAuthorization creates a CAPTURE-intent order for a single purchase
// unit carrying amount as a decimal string.
func (c *Client) CreateAuthorization(ctx context.Context, total decimal.Decimal) (*payment.Authorization, error) {
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: %s", payment.ErrInvalidAmount, total.String())
	}

	req, err := c.request(ctx, "")
	if err != nil {
		return nil, err
	}

	var result orderResponse
	resp, err := req.
		SetBody(createOrderRequest{
			Intent: "CAPTURE",
			PurchaseUnits: []purchaseUnit{{
				Amount: amount{CurrencyCode: c.currency, Value: payment.FormatAmount(total)},
			}},
		}).
		SetResult(&result).
		Post("/v2/checkout/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal order: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Operation: "create order", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	auth := &payment.Authorization{ID: result.ID, Status: result.Status}
	for _, l := range result.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			auth.ApproveURL = l.Href
			break
		}
	}
	return auth, nil
}

// Capture captures an approved order. A non-COMPLETED status is returned as
// is; the caller decides what it means.
func (c *Client) Capture(ctx context.Context, orderID string) (*payment.Capture, error) {
	req, err := c.request(ctx, "capture-"+orderID)
	if err != nil {
		return nil, err
	}

	var result orderResponse
	resp, err := req.
		SetBody(struct{}{}).
		SetResult(&result).
		Post("/v2/checkout/orders/" + orderID + "/capture")
	if err != nil {
		return nil, fmt.Errorf("failed to capture paypal order: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Operation: "capture", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return result.capture(), nil
}

// Lookup fetches the order. Its status is COMPLETED once it was captured.
func (c *Client) Lookup(ctx context.Context, orderID string) (*payment.Capture, error) {
	req, err := c.request(ctx, "")
	if err != nil {
		return nil, err
	}

	var result orderResponse
	resp, err := req.
		SetResult(&result).
		Get("/v2/checkout/orders/" + orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get paypal order: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Operation: "get order", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return result.capture(), nil
}

func (r orderResponse) capture() *payment.Capture {
	capture := &payment.Capture{ID: r.ID, Status: r.Status}
	for _, pu := range r.PurchaseUnits {
		if len(pu.Payments.Captures) > 0 {
			capture.CaptureID = pu.Payments.Captures[0].ID
			break
		}
	}
	return capture
}

// Cancel is bookkeeping only: PayPal expires orders that are never captured.
func (c *Client) Cancel(ctx context.Context, orderID string) error {
	return nil
}

func (c *Client) Refund(ctx context.Context, captureID string, total decimal.Decimal) error {
	req, err := c.request(ctx, "refund-"+captureID)
	if err != nil {
		return err
	}

	resp, err := req.
		SetBody(refundRequest{Amount: amount{CurrencyCode: c.currency, Value: payment.FormatAmount(total)}}).
		Post("/v2/payments/captures/" + captureID + "/refund")
	if err != nil {
		return fmt.Errorf("failed to refund paypal capture: %w", err)
	}
	if resp.IsError() {
		return &APIError{Operation: "refund", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
