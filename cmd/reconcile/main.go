// Command reconcile makes one pass over payment settlements that never
// reached an order, completing or refunding them.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"solo-drops-backend/internal/app"
	"solo-drops-backend/internal/checkout"
	"solo-drops-backend/internal/config"
	"solo-drops-backend/internal/logger"
	"solo-drops-backend/internal/services"
	"solo-drops-backend/internal/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg := logger.New(logger.Options{
		Service: "solo-drops-reconcile",
		Env:     cfg.Environment,
		Level:   cfg.LogLevel,
	})

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("reconciliation failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	store, closeStore, err := app.OpenStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher := app.NewPublisher(cfg, lg)
	defer closePublisher()

	orders := services.NewOrderService(store, publisher, cfg.KafkaOrderTopic, cfg.ConfirmationSecret, lg)
	reconciler := checkout.NewReconciler(store, orders, app.NewPayments(cfg), cfg.ReconcileAfter, lg)

	result, err := reconciler.Run(ctx)
	if err != nil {
		return err
	}
	lg.Info("reconciliation finished",
		slog.Int("completed", result.Completed),
		slog.Int("refunded", result.Refunded),
		slog.Int("abandoned", result.Abandoned),
		slog.Int("errors", result.Errors))
	return nil
}
