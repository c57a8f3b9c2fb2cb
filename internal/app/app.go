// Package app builds the components shared by the server and the
// reconciliation job from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"solo-drops-backend/internal/config"
	"solo-drops-backend/internal/database"
	"solo-drops-backend/internal/messaging"
	"solo-drops-backend/internal/messaging/kafka"
	"solo-drops-backend/internal/notify"
	"solo-drops-backend/internal/paypal"
	"solo-drops-backend/internal/repository"
	"solo-drops-backend/internal/store/memory"
	"solo-drops-backend/internal/supabase"
)

// OpenStore connects to DATABASE_URL and runs migrations. Without a
// DATABASE_URL it falls back to the in-memory store.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := supabase.NewDatabaseClient(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database client: %w", err)
	}

	if err := database.NewMigrator(db.DB(), log).Run(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info("migrations completed successfully")

	return db, func() { db.Close() }, nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg *config.Config, log *slog.Logger) (messaging.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("KAFKA_BROKERS not set, order events are not published")
		return messaging.NewNoop(), func() {}
	}
	broker := kafka.NewBroker(cfg.KafkaBrokers)
	return broker, func() {
		if err := broker.Close(); err != nil {
			log.Warn("failed to close kafka writer", slog.Any("error", err))
		}
	}
}

func NewPayments(cfg *config.Config) *paypal.Client {
	return paypal.NewClient(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalCurrency)
}

// NewMailer returns the Mailgun sender, or a logging stand-in when Mailgun is
// not configured.
func NewMailer(cfg *config.Config, log *slog.Logger) notify.Notifier {
	if cfg.MailgunAPIKey == "" || cfg.MailgunDomain == "" {
		log.Warn("MAILGUN_API_KEY or MAILGUN_DOMAIN not set, confirmation emails are only logged")
		return notify.NewLog(log)
	}
	return notify.NewMailgun(cfg.MailgunBaseURL, cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.MailgunFromEmail)
}

// NewNotifier is what checkout uses: the hosted gateway when
// NOTIFICATION_URL is set, the mailer otherwise.
func NewNotifier(cfg *config.Config, mailer notify.Notifier) notify.Notifier {
	if cfg.NotificationURL != "" {
		return notify.NewHTTPGateway(cfg.NotificationURL, cfg.NotificationSecret)
	}
	return mailer
}
