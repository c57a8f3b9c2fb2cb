package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/checkout"
	"solo-drops-backend/internal/messaging"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/payment"
	"solo-drops-backend/internal/repository"
	"solo-drops-backend/internal/services"
	"solo-drops-backend/internal/store/memory"
)

type fakeOrchestrator struct {
	mu            sync.Mutex
	created       []decimal.Decimal
	cancelled     []string
	refunded      []string
	captured      []string
	captureStatus string
	captureErr    error
	lookupErr     error
	// remote is the provider's view of each order; unknown ids are APPROVED.
	remote map[string]string
	next   int
}

func (f *fakeOrchestrator) CreateAuthorization(ctx context.Context, amount decimal.Decimal) (*payment.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.created = append(f.created, amount)
	id := "PAYPAL-" + string(rune('A'+f.next-1))
	return &payment.Authorization{ID: id, Status: "CREATED", ApproveURL: "https://paypal.test/approve/" + id}, nil
}

func (f *fakeOrchestrator) Capture(ctx context.Context, id string) (*payment.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, id)
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	f.setRemote(id, f.captureStatus)
	return &payment.Capture{ID: id, Status: f.captureStatus, CaptureID: "CAP-" + id}, nil
}

func (f *fakeOrchestrator) Lookup(ctx context.Context, id string) (*payment.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	status, ok := f.remote[id]
	if !ok {
		status = "APPROVED"
	}
	c := &payment.Capture{ID: id, Status: status}
	if status == payment.StatusCompleted {
		c.CaptureID = "CAP-" + id
	}
	return c, nil
}

func (f *fakeOrchestrator) setRemote(id, status string) {
	if f.remote == nil {
		f.remote = make(map[string]string)
	}
	f.remote[id] = status
}

func (f *fakeOrchestrator) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeOrchestrator) Refund(ctx context.Context, captureID string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunded = append(f.refunded, captureID)
	return nil
}

type fakeNotifier struct {
	sent []models.OrderConfirmation
	err  error
}

func (f *fakeNotifier) SendOrderConfirmation(ctx context.Context, msg models.OrderConfirmation) error {
	f.sent = append(f.sent, msg)
	return f.err
}

// brokenOrders fails every order insert.
type brokenOrders struct {
	*memory.Store
}

func (b brokenOrders) CreateOrder(ctx context.Context, order models.NewOrder) (*models.Order, error) {
	return nil, errors.New("connection reset by peer")
}

type harness struct {
	store    *memory.Store
	payments *fakeOrchestrator
	notifier *fakeNotifier
	orders   *services.OrderService
	workflow *checkout.Workflow
}

func newHarness(t *testing.T, captureStatus string) *harness {
	t.Helper()
	store := memory.New()
	return buildHarness(t, store, store, services.NewOrderService(store, messaging.NewNoop(), "orders", "secret", nil), captureStatus)
}

func buildHarness(
	t *testing.T,
	store *memory.Store,
	settlements repository.SettlementRepository,
	orders *services.OrderService,
	captureStatus string,
) *harness {
	t.Helper()
	settings := services.NewSettingsState(store)
	price := decimal.NewFromInt(100)
	discount := decimal.NewFromInt(10)
	_, err := settings.Update(context.Background(), models.SettingsPatch{Price: &price, Discount: &discount})
	require.NoError(t, err)

	h := &harness{
		store:    store,
		payments: &fakeOrchestrator{captureStatus: captureStatus},
		notifier: &fakeNotifier{},
		orders:   orders,
	}
	h.workflow = checkout.NewWorkflow(checkout.WorkflowOptions{
		Sessions:    checkout.NewMemoryStore(time.Hour),
		Settings:    settings,
		Orders:      orders,
		Settlements: settlements,
		Payments:    h.payments,
		Notifier:    h.notifier,
	})
	return h
}

func details() models.ShippingDetails {
	return models.ShippingDetails{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "Grace@Navy.mil",
		Phone:     "+1 555 0199",
		Country:   "US",
		Address:   "1 Compiler Rd",
		ZipCode:   "22202",
	}
}

func TestWorkflow_CompletedCaptureRecordsOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepShipping, s.Step)

	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 3)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepPayment, s.Step)
	assert.Equal(t, payment.StateAwaitingAuthorization, s.PaymentState)
	require.NotNil(t, s.Amount)
	assert.Equal(t, "270.00", s.Amount.StringFixed(2))

	s, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepRecorded, s.Step)
	assert.Equal(t, payment.StateSettled, s.PaymentState)
	require.NotEmpty(t, s.OrderID)

	order, err := h.store.GetOrder(ctx, s.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Equal(t, "Grace", order.FirstName)
	assert.Equal(t, "Hopper", order.LastName)
	assert.Equal(t, "Grace@Navy.mil", order.Email)
	assert.Equal(t, "+1 555 0199", order.Phone)
	assert.Equal(t, "US", order.Country)
	assert.Equal(t, "1 Compiler Rd", order.Address)
	assert.Equal(t, "22202", order.ZipCode)
	assert.Equal(t, s.AuthorizationID, order.PayPalOrderID)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, order.ID, h.notifier.sent[0].OrderNumber)
	assert.Equal(t, "Grace Hopper", h.notifier.sent[0].CustomerName)
	assert.Equal(t, "270.00", h.notifier.sent[0].Amount.StringFixed(2))

	settlement, err := h.store.GetSettlement(ctx, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementRecorded, settlement.Status)
	require.NotNil(t, settlement.OrderID)
	assert.Equal(t, order.ID, *settlement.OrderID)

	require.NoError(t, h.workflow.Dismiss(ctx, s.ID))
	_, err = h.workflow.Get(ctx, s.ID)
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}

func TestWorkflow_FailedCaptureKeepsShopperOnPayment(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "FAILED")

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)

	s, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	require.Error(t, err)
	assert.True(t, checkout.IsPaymentFailure(err))
	require.NotNil(t, s)
	assert.Equal(t, checkout.StepPayment, s.Step)
	assert.Equal(t, payment.StateFailed, s.PaymentState)
	assert.Equal(t, checkout.MsgPaymentFailed, s.Error)

	orders, err := h.store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, h.notifier.sent)

	settlement, err := h.store.GetSettlement(ctx, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementFailed, settlement.Status)

	s, err = h.workflow.Back(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepShipping, s.Step)
	assert.Equal(t, details(), s.Shipping)
	assert.Empty(t, s.AuthorizationID)
}

func TestWorkflow_DeclinedCaptureIsPaymentFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)
	h.payments.captureErr = fmt.Errorf("%w: INSTRUMENT_DECLINED", payment.ErrDeclined)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)

	s, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	assert.True(t, checkout.IsPaymentFailure(err))
	assert.Equal(t, payment.StateFailed, s.PaymentState)

	settlement, err := h.store.GetSettlement(ctx, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementFailed, settlement.Status)
}

func TestWorkflow_CaptureTimeoutLeavesPaymentUnconfirmed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)
	h.payments.captureErr = context.DeadlineExceeded

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)
	firstAuth := s.AuthorizationID

	s, err = h.workflow.Approve(ctx, s.ID, firstAuth)
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrCaptureUnconfirmed)
	assert.False(t, checkout.IsPaymentFailure(err))
	require.NotNil(t, s)
	assert.Equal(t, payment.StateCapturing, s.PaymentState)
	assert.Equal(t, checkout.MsgPaymentUnconfirmed, s.Error)

	settlement, err := h.store.GetSettlement(ctx, firstAuth)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementPending, settlement.Status)

	// Nothing may start a second payment while the first is unresolved.
	_, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	assert.ErrorIs(t, err, checkout.ErrInvalidStep)
	_, err = h.workflow.Back(ctx, s.ID)
	assert.ErrorIs(t, err, checkout.ErrInvalidStep)
	_, err = h.workflow.Fail(ctx, s.ID, "window closed")
	assert.ErrorIs(t, err, checkout.ErrInvalidStep)
	assert.Len(t, h.payments.created, 1)

	// Retrying the same authorization settles it.
	h.payments.captureErr = nil
	s, err = h.workflow.Approve(ctx, s.ID, firstAuth)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepRecorded, s.Step)
	assert.Equal(t, []string{firstAuth, firstAuth}, h.payments.captured)

	orders, err := h.store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestWorkflow_ApproveAfterReconcilerRecordedOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)
	h.payments.captureErr = errors.New("connection reset by peer")

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)
	_, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	require.ErrorIs(t, err, payment.ErrCaptureUnconfirmed)

	// The capture went through on the provider's side.
	h.payments.setRemote(s.AuthorizationID, payment.StatusCompleted)
	reconciler := checkout.NewReconciler(h.store, h.orders, h.payments, 15*time.Minute, nil)
	reconciler.SetClock(func() time.Time { return time.Now().Add(time.Hour) })
	result, err := reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)

	s, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepRecorded, s.Step)
	assert.NotEmpty(t, s.OrderID)

	orders, err := h.store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestWorkflow_OrderWriteFailureLeavesSettlementCaptured(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	orders := services.NewOrderService(brokenOrders{store}, messaging.NewNoop(), "orders", "secret", nil)
	h := buildHarness(t, store, store, orders, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)

	s, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	require.Error(t, err)
	assert.False(t, checkout.IsPaymentFailure(err))
	require.NotNil(t, s)
	assert.Equal(t, checkout.StepPayment, s.Step)
	assert.Equal(t, checkout.MsgOrderNotRecorded, s.Error)
	assert.Empty(t, h.notifier.sent)

	settlement, err := store.GetSettlement(ctx, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementCaptured, settlement.Status)
	require.NotNil(t, settlement.CaptureID)

	// A paid session cannot start another payment.
	_, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	assert.ErrorIs(t, err, checkout.ErrAlreadyPaid)
}

func TestWorkflow_NotificationFailureDoesNotFailCheckout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)
	h.notifier.err = errors.New("mailgun down")

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)

	s, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepRecorded, s.Step)
	assert.Len(t, h.notifier.sent, 1)
}

func TestWorkflow_SubmitShippingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	first, err := h.workflow.SubmitShipping(ctx, s.ID, details(), 2)
	require.NoError(t, err)
	second, err := h.workflow.SubmitShipping(ctx, s.ID, details(), 2)
	require.NoError(t, err)

	assert.Equal(t, first.AuthorizationID, second.AuthorizationID)
	assert.Len(t, h.payments.created, 1)

	third, err := h.workflow.SubmitShipping(ctx, s.ID, details(), 3)
	require.NoError(t, err)
	assert.NotEqual(t, first.AuthorizationID, third.AuthorizationID)
	assert.Equal(t, []string{first.AuthorizationID}, h.payments.cancelled)
}

func TestWorkflow_PricesFromCurrentSettings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)
	assert.Equal(t, "90.00", s.Amount.StringFixed(2))

	// Another instance changes the price behind this one's back.
	other := services.NewSettingsState(h.store)
	price := decimal.NewFromInt(150)
	_, err = other.Update(ctx, models.SettingsPatch{Price: &price})
	require.NoError(t, err)

	s, err = h.workflow.Back(ctx, s.ID)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)
	assert.Equal(t, "140.00", s.Amount.StringFixed(2))
	assert.Equal(t, "140.00", h.payments.created[len(h.payments.created)-1].StringFixed(2))
}

func TestWorkflow_SubmitShippingValidates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)

	missing := details()
	missing.Phone = ""
	_, err = h.workflow.SubmitShipping(ctx, s.ID, missing, 1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = h.workflow.SubmitShipping(ctx, s.ID, details(), -2)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	s, err = h.workflow.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepShipping, s.Step)
	assert.Empty(t, h.payments.created)
}

func TestWorkflow_CancelAndRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)
	firstAuth := s.AuthorizationID

	s, err = h.workflow.Cancel(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepPayment, s.Step)
	assert.Equal(t, payment.StateCancelled, s.PaymentState)
	assert.Equal(t, checkout.MsgPaymentCancelled, s.Message)

	_, err = h.workflow.Approve(ctx, s.ID, firstAuth)
	assert.ErrorIs(t, err, checkout.ErrInvalidStep)

	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, firstAuth, s.AuthorizationID)

	s, err = h.workflow.Approve(ctx, s.ID, s.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepRecorded, s.Step)
}

func TestWorkflow_FailRecordsError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)

	s, err = h.workflow.Fail(ctx, s.ID, "popup blocked")
	require.NoError(t, err)
	assert.Equal(t, checkout.StepPayment, s.Step)
	assert.Equal(t, payment.StateFailed, s.PaymentState)
	assert.Equal(t, checkout.MsgPaymentFailed, s.Error)
}

func TestWorkflow_ApproveRejectsForeignAuthorization(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)
	s, err = h.workflow.SubmitShipping(ctx, s.ID, details(), 1)
	require.NoError(t, err)

	_, err = h.workflow.Approve(ctx, s.ID, "SOMEONE-ELSE")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestWorkflow_DismissRequiresRecordedOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, payment.StatusCompleted)

	s, err := h.workflow.Start(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, h.workflow.Dismiss(ctx, s.ID), checkout.ErrInvalidStep)
	assert.ErrorIs(t, h.workflow.Dismiss(ctx, "missing"), checkout.ErrSessionNotFound)
}

func TestMemoryStore_Expires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := checkout.NewMemoryStore(time.Minute)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Save(ctx, &checkout.Session{ID: "s1", Step: checkout.StepShipping}))
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}
