package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/payment"
	"solo-drops-backend/internal/repository"
	"solo-drops-backend/internal/services"
)

// ReconcileResult counts what one reconciliation pass did.
type ReconcileResult struct {
	Completed int `json:"completed"`
	Refunded  int `json:"refunded"`
	Abandoned int `json:"abandoned"`
	Errors    int `json:"errors"`
}

// Reconciler finds settlements that never reached an order and either
// completes or refunds them.
type Reconciler struct {
	settlements repository.SettlementRepository
	orders      *services.OrderService
	payments    payment.Orchestrator
	after       time.Duration
	log         *slog.Logger
	now         func() time.Time
}

func NewReconciler(
	settlements repository.SettlementRepository,
	orders *services.OrderService,
	payments payment.Orchestrator,
	after time.Duration,
	log *slog.Logger,
) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		settlements: settlements,
		orders:      orders,
		payments:    payments,
		after:       after,
		log:         log.With(slog.String("component", "reconciler")),
		now:         time.Now,
	}
}

func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// Run makes one pass. Captured settlements older than the threshold get an
// order if one can be written, otherwise the capture is refunded. Pending
// settlements older than the threshold are checked with the provider: those
// it reports captured are handled the same way, the rest are abandoned.
func (r *Reconciler) Run(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult
	cutoff := r.now().Add(-r.after)

	captured, err := r.settlements.ListSettlements(ctx, models.SettlementCaptured, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to list captured settlements: %w", err)
	}
	for _, st := range captured {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log := r.log.With(slog.String("paypal_order_id", st.PayPalOrderID))
		outcome, err := r.settleCaptured(ctx, st)
		if err != nil {
			result.Errors++
			log.Error("failed to reconcile captured settlement", slog.Any("error", err))
			continue
		}
		switch outcome {
		case models.SettlementRecorded:
			result.Completed++
		case models.SettlementRefunded:
			result.Refunded++
		}
		log.Info("reconciled settlement", slog.String("status", string(outcome)))
	}

	pending, err := r.settlements.ListSettlements(ctx, models.SettlementPending, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to list pending settlements: %w", err)
	}
	for _, st := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log := r.log.With(slog.String("paypal_order_id", st.PayPalOrderID))
		outcome, err := r.settlePending(ctx, st)
		if err != nil {
			result.Errors++
			log.Error("failed to reconcile pending settlement", slog.Any("error", err))
			continue
		}
		switch outcome {
		case models.SettlementRecorded:
			result.Completed++
		case models.SettlementRefunded:
			result.Refunded++
		case models.SettlementAbandoned:
			result.Abandoned++
		}
		log.Info("reconciled settlement", slog.String("status", string(outcome)))
	}

	return result, nil
}

// settlePending asks the provider what happened to a payment whose capture
// was never confirmed. Captured payments are completed or refunded like any
// captured settlement; the rest are abandoned.
func (r *Reconciler) settlePending(ctx context.Context, st models.Settlement) (models.SettlementStatus, error) {
	remote, err := r.payments.Lookup(ctx, st.PayPalOrderID)
	if err != nil {
		return "", fmt.Errorf("failed to look up payment: %w", err)
	}

	if !remote.Completed() {
		reason := fmt.Sprintf("not captured within reconciliation window (provider status %s)", remote.Status)
		if _, err := r.settlements.UpdateSettlement(ctx, st.PayPalOrderID, models.SettlementUpdate{
			Status:        models.SettlementAbandoned,
			FailureReason: &reason,
		}); err != nil {
			return "", err
		}
		return models.SettlementAbandoned, nil
	}

	captureID := remote.CaptureID
	updated, err := r.settlements.UpdateSettlement(ctx, st.PayPalOrderID, models.SettlementUpdate{
		Status:    models.SettlementCaptured,
		CaptureID: &captureID,
	})
	if err != nil {
		return "", err
	}
	return r.settleCaptured(ctx, *updated)
}

func (r *Reconciler) settleCaptured(ctx context.Context, st models.Settlement) (models.SettlementStatus, error) {
	order, err := r.orders.FindByPayment(ctx, st.PayPalOrderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	if order == nil && st.Shipping != nil {
		order, err = r.orders.Create(ctx, models.NewOrder{
			Shipping:      *st.Shipping,
			PayPalOrderID: st.PayPalOrderID,
			Status:        models.StatusPaid,
		})
		if err != nil && !errors.Is(err, models.ErrInvalidInput) {
			return "", err
		}
	}

	if order != nil {
		orderID := order.ID
		if _, err := r.settlements.UpdateSettlement(ctx, st.PayPalOrderID, models.SettlementUpdate{
			Status:  models.SettlementRecorded,
			OrderID: &orderID,
		}); err != nil {
			return "", err
		}
		return models.SettlementRecorded, nil
	}

	if st.CaptureID == nil || *st.CaptureID == "" {
		return "", fmt.Errorf("settlement has neither shipping details nor a capture id")
	}
	if err := r.payments.Refund(ctx, *st.CaptureID, st.Amount); err != nil {
		return "", fmt.Errorf("failed to refund capture %s: %w", *st.CaptureID, err)
	}
	reason := "refunded: order could not be recorded"
	if _, err := r.settlements.UpdateSettlement(ctx, st.PayPalOrderID, models.SettlementUpdate{
		Status:        models.SettlementRefunded,
		FailureReason: &reason,
	}); err != nil {
		return "", err
	}
	return models.SettlementRefunded, nil
}
