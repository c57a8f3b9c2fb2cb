package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/notify"
	"solo-drops-backend/internal/payment"
	"solo-drops-backend/internal/repository"
	"solo-drops-backend/internal/services"
)

type Workflow struct {
	sessions    SessionStore
	settings    *services.SettingsState
	orders      *services.OrderService
	settlements repository.SettlementRepository
	payments    payment.Orchestrator
	notifier    notify.Notifier
	currency    string
	log         *slog.Logger
	now         func() time.Time
}

type WorkflowOptions struct {
	Sessions    SessionStore
	Settings    *services.SettingsState
	Orders      *services.OrderService
	Settlements repository.SettlementRepository
	Payments    payment.Orchestrator
	Notifier    notify.Notifier
	Currency    string
	Logger      *slog.Logger
}

func NewWorkflow(opts WorkflowOptions) *Workflow {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	currency := opts.Currency
	if currency == "" {
		currency = "USD"
	}
	return &Workflow{
		sessions:    opts.Sessions,
		settings:    opts.Settings,
		orders:      opts.Orders,
		settlements: opts.Settlements,
		payments:    opts.Payments,
		notifier:    opts.Notifier,
		currency:    currency,
		log:         log.With(slog.String("component", "checkout")),
		now:         time.Now,
	}
}

// Start opens a new session at the shipping step.
func (w *Workflow) Start(ctx context.Context) (*Session, error) {
	now := w.now().UTC()
	s := &Session{
		ID:           uuid.NewString(),
		Step:         StepShipping,
		Quantity:     1,
		PaymentState: payment.StateIdle,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (w *Workflow) Get(ctx context.Context, id string) (*Session, error) {
	return w.sessions.Get(ctx, id)
}

// SubmitShipping stores the shipping details, prices the order and opens a
// payment authorization. Submitting again while an authorization for the
// same amount is still open returns that authorization.
func (w *Workflow) SubmitShipping(ctx context.Context, id string, details models.ShippingDetails, quantity int) (*Session, error) {
	s, err := w.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Step == StepRecorded || s.PaymentState == payment.StateSettled {
		return nil, ErrAlreadyPaid
	}
	if s.PaymentState == payment.StateCapturing {
		return nil, fmt.Errorf("%w: payment is being captured", ErrInvalidStep)
	}

	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrInvalidInput)
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	// Price from the repository, not from a copy another instance may have
	// outdated.
	product, err := w.settings.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	total, err := payment.Total(product.Price, product.Discount, quantity)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: total must be positive, got %s", payment.ErrInvalidAmount, payment.FormatAmount(total))
	}

	s.Shipping = details
	s.Quantity = quantity
	s.Step = StepPayment

	if s.PaymentState == payment.StateAwaitingAuthorization && s.AuthorizationID != "" &&
		s.Amount != nil && s.Amount.Equal(total) {
		s.Error = ""
		if err := w.save(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}

	if s.PaymentState == payment.StateAwaitingAuthorization {
		w.teardown(ctx, s)
	}

	next, err := payment.StateIdle.Next(payment.StateAwaitingAuthorization)
	if err != nil {
		return nil, err
	}
	auth, err := w.payments.CreateAuthorization(ctx, total)
	if err != nil {
		w.log.Error("failed to create payment authorization",
			slog.String("session_id", s.ID),
			slog.String("amount", payment.FormatAmount(total)),
			slog.Any("error", err))
		s.PaymentState = payment.StateFailed
		s.Error = MsgPaymentFailed
		if saveErr := w.save(ctx, s); saveErr != nil {
			return nil, saveErr
		}
		return s, fmt.Errorf("failed to create payment authorization: %w", err)
	}

	s.PaymentState = next
	s.AuthorizationID = auth.ID
	s.ApproveURL = auth.ApproveURL
	s.Amount = &total
	s.Error = ""
	s.Message = ""
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Approve captures an approved authorization and records the order.
//
// A settlement row is written before capture. If the order cannot be written
// afterwards the settlement stays captured and the reconciler picks it up.
// When the payment does not complete, the returned error wraps
// payment.ErrPaymentNotCompleted and the session is still returned. When the
// provider cannot be reached the error wraps payment.ErrCaptureUnconfirmed,
// the session stays in capturing and Approve may be called again.
func (w *Workflow) Approve(ctx context.Context, id, authorizationID string) (*Session, error) {
	s, err := w.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Step == StepRecorded || s.PaymentState == payment.StateSettled {
		return nil, ErrAlreadyPaid
	}
	if s.Step != StepPayment {
		return nil, fmt.Errorf("%w: expected %s, session is at %s", ErrInvalidStep, StepPayment, s.Step)
	}
	if authorizationID == "" || authorizationID != s.AuthorizationID {
		return nil, fmt.Errorf("%w: authorization does not belong to this session", models.ErrInvalidInput)
	}
	if s.PaymentState != payment.StateCapturing {
		if _, err := s.PaymentState.Next(payment.StateCapturing); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStep, err)
		}
	}

	log := w.log.With(slog.String("session_id", s.ID), slog.String("paypal_order_id", authorizationID))

	shipping := s.Shipping
	settlement, err := w.settlements.CreateSettlement(ctx, models.Settlement{
		PayPalOrderID: authorizationID,
		Amount:        *s.Amount,
		Currency:      w.currency,
		Status:        models.SettlementPending,
		Shipping:      &shipping,
	})
	if err != nil {
		log.Error("failed to write pending settlement", slog.Any("error", err))
		if s.PaymentState == payment.StateCapturing {
			return s, fmt.Errorf("%w: failed to write settlement: %v", payment.ErrCaptureUnconfirmed, err)
		}
		return w.failAttempt(ctx, s, MsgPaymentFailed, fmt.Errorf("failed to write settlement: %w", err))
	}
	if settlement.Status != models.SettlementPending {
		// The reconciler already settled this payment.
		return w.resume(ctx, s, settlement)
	}

	s.PaymentState = payment.StateCapturing
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}

	capture, err := w.payments.Capture(ctx, authorizationID)
	switch {
	case err != nil && !errors.Is(err, payment.ErrDeclined):
		log.Warn("payment capture outcome unknown", slog.Any("error", err))
		s.Error = MsgPaymentUnconfirmed
		if saveErr := w.save(ctx, s); saveErr != nil {
			return nil, saveErr
		}
		return s, fmt.Errorf("%w: %v", payment.ErrCaptureUnconfirmed, err)
	case err != nil:
		err = fmt.Errorf("%w: %v", payment.ErrPaymentNotCompleted, err)
	case !capture.Completed():
		err = fmt.Errorf("%w: status %s", payment.ErrPaymentNotCompleted, capture.Status)
	}
	if err != nil {
		log.Warn("payment capture failed", slog.Any("error", err))
		reason := err.Error()
		if _, uerr := w.settlements.UpdateSettlement(ctx, authorizationID, models.SettlementUpdate{
			Status:        models.SettlementFailed,
			FailureReason: &reason,
		}); uerr != nil {
			log.Error("failed to mark settlement failed", slog.Any("error", uerr))
		}
		return w.failAttempt(ctx, s, MsgPaymentFailed, err)
	}

	captureID := capture.CaptureID
	if _, err := w.settlements.UpdateSettlement(ctx, authorizationID, models.SettlementUpdate{
		Status:    models.SettlementCaptured,
		CaptureID: &captureID,
	}); err != nil {
		// The settlement stays pending; the reconciler asks the provider.
		log.Error("failed to mark settlement captured", slog.Any("error", err))
	}

	s.PaymentState = payment.StateSettled
	order, err := w.recordOrder(ctx, s, authorizationID)
	if err != nil {
		log.Error("captured payment has no order", slog.String("capture_id", captureID), slog.Any("error", err))
		s.Error = MsgOrderNotRecorded
		if saveErr := w.save(ctx, s); saveErr != nil {
			return nil, saveErr
		}
		return s, fmt.Errorf("failed to record order: %w", err)
	}

	orderID := order.ID
	if _, err := w.settlements.UpdateSettlement(ctx, authorizationID, models.SettlementUpdate{
		Status:  models.SettlementRecorded,
		OrderID: &orderID,
	}); err != nil {
		log.Error("failed to mark settlement recorded", slog.String("order_id", order.ID), slog.Any("error", err))
	}

	w.sendConfirmation(ctx, order, *s.Amount)
	return w.recorded(ctx, s, order.ID)
}

// recordOrder returns the order already written for the payment, or creates
// it.
func (w *Workflow) recordOrder(ctx context.Context, s *Session, authorizationID string) (*models.Order, error) {
	order, err := w.orders.FindByPayment(ctx, authorizationID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return w.orders.Create(ctx, models.NewOrder{
		Shipping:      s.Shipping,
		PayPalOrderID: authorizationID,
		Status:        models.StatusPaid,
	})
}

// resume brings a session in line with a settlement that moved on without it.
func (w *Workflow) resume(ctx context.Context, s *Session, settlement *models.Settlement) (*Session, error) {
	switch settlement.Status {
	case models.SettlementRecorded:
		s.PaymentState = payment.StateSettled
		return w.recorded(ctx, s, derefString(settlement.OrderID))
	case models.SettlementCaptured:
		s.PaymentState = payment.StateSettled
		s.Error = MsgOrderNotRecorded
		if err := w.save(ctx, s); err != nil {
			return nil, err
		}
		return s, fmt.Errorf("payment %s is captured but not yet recorded", settlement.PayPalOrderID)
	}
	reason := string(settlement.Status)
	if settlement.FailureReason != nil {
		reason = *settlement.FailureReason
	}
	return w.failAttempt(ctx, s, MsgPaymentFailed, fmt.Errorf("%w: %s", payment.ErrPaymentNotCompleted, reason))
}

func (w *Workflow) recorded(ctx context.Context, s *Session, orderID string) (*Session, error) {
	s.Step = StepRecorded
	s.OrderID = orderID
	s.Error = ""
	s.Message = MsgOrderRecorded
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Fail records an error reported by the payment provider's checkout UI.
func (w *Workflow) Fail(ctx context.Context, id, reason string) (*Session, error) {
	s, err := w.paymentSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.PaymentState == payment.StateCapturing {
		return nil, fmt.Errorf("%w: payment is being captured", ErrInvalidStep)
	}
	next, err := s.PaymentState.Next(payment.StateFailed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	w.log.Warn("payment reported an error",
		slog.String("session_id", s.ID),
		slog.String("paypal_order_id", s.AuthorizationID),
		slog.String("reason", reason))

	s.PaymentState = next
	s.Error = MsgPaymentFailed
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Cancel records that the shopper closed the payment window.
func (w *Workflow) Cancel(ctx context.Context, id string) (*Session, error) {
	s, err := w.paymentSession(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.PaymentState.Next(payment.StateCancelled)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	if err := w.payments.Cancel(ctx, s.AuthorizationID); err != nil {
		w.log.Warn("failed to cancel authorization", slog.String("session_id", s.ID), slog.Any("error", err))
	}

	s.PaymentState = next
	s.Error = ""
	s.Message = MsgPaymentCancelled
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Back returns to the shipping step. Shipping details are kept and any open
// authorization is dropped.
func (w *Workflow) Back(ctx context.Context, id string) (*Session, error) {
	s, err := w.paymentSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.PaymentState == payment.StateCapturing {
		return nil, fmt.Errorf("%w: payment is being captured", ErrInvalidStep)
	}
	if s.PaymentState == payment.StateAwaitingAuthorization {
		w.teardown(ctx, s)
	}

	s.Step = StepShipping
	s.PaymentState = payment.StateIdle
	s.AuthorizationID = ""
	s.ApproveURL = ""
	s.Error = ""
	s.Message = ""
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Dismiss discards a session once the shopper has seen the confirmation.
func (w *Workflow) Dismiss(ctx context.Context, id string) error {
	s, err := w.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.Step != StepRecorded {
		return fmt.Errorf("%w: nothing to acknowledge at %s", ErrInvalidStep, s.Step)
	}
	return w.sessions.Delete(ctx, id)
}

func (w *Workflow) paymentSession(ctx context.Context, id string) (*Session, error) {
	s, err := w.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Step == StepRecorded || s.PaymentState == payment.StateSettled {
		return nil, ErrAlreadyPaid
	}
	if s.Step != StepPayment {
		return nil, fmt.Errorf("%w: expected %s, session is at %s", ErrInvalidStep, StepPayment, s.Step)
	}
	return s, nil
}

func (w *Workflow) failAttempt(ctx context.Context, s *Session, msg string, cause error) (*Session, error) {
	s.PaymentState = payment.StateFailed
	s.Error = msg
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, cause
}

func (w *Workflow) teardown(ctx context.Context, s *Session) {
	if err := w.payments.Cancel(ctx, s.AuthorizationID); err != nil {
		w.log.Warn("failed to cancel authorization",
			slog.String("session_id", s.ID),
			slog.String("paypal_order_id", s.AuthorizationID),
			slog.Any("error", err))
	}
}

// sendConfirmation is best-effort: a failure is logged and the order stands.
func (w *Workflow) sendConfirmation(ctx context.Context, order *models.Order, amount decimal.Decimal) {
	if w.notifier == nil {
		return
	}
	err := w.notifier.SendOrderConfirmation(ctx, models.OrderConfirmation{
		CustomerName: order.CustomerName(),
		OrderNumber:  order.ID,
		Amount:       amount,
		Email:        order.Email,
	})
	if err != nil {
		w.log.Warn("failed to send order confirmation",
			slog.String("order_id", order.ID),
			slog.Any("error", err))
	}
}

func (w *Workflow) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = w.now().UTC()
	if err := w.sessions.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save checkout session: %w", err)
	}
	return nil
}

// IsPaymentFailure reports whether err came from a payment that did not
// complete, as opposed to a problem on our side.
func IsPaymentFailure(err error) bool {
	return errors.Is(err, payment.ErrPaymentNotCompleted)
}
