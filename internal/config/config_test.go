package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_PUBLISHABLE_KEY", "anon-key")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "USD", cfg.PayPalCurrency)
	assert.Equal(t, "jwt-secret", cfg.ConfirmationSecret)
	assert.Equal(t, 2*time.Hour, cfg.CheckoutSessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.ReconcileAfter)
	assert.Equal(t, 30*time.Second, cfg.SettingsCacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Lists(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ALLOWED_ORIGINS", "https://solodrops.example")
	t.Setenv("CHECKOUT_SESSION_TTL", "45m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://solodrops.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 45*time.Minute, cfg.CheckoutSessionTTL)
}

func TestLoad_MissingSupabase(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_PUBLISHABLE_KEY", "")
	t.Setenv("SUPABASE_JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL is required")
}

func TestValidate_ProductionNeedsPayPal(t *testing.T) {
	cfg := &config.Config{
		SupabaseURL:            "https://example.supabase.co",
		SupabasePublishableKey: "anon-key",
		SupabaseJWTSecret:      "jwt-secret",
		Environment:            "production",
		DatabaseURL:            "postgres://localhost/db",
		CheckoutSessionTTL:     time.Hour,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYPAL_CLIENT_ID")

	cfg.PayPalClientID = "id"
	cfg.PayPalClientSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NotificationURLNeedsSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFICATION_URL", "https://api.solodrops.example/api/v1/notifications/order-confirmation")
	t.Setenv("NOTIFICATION_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_SECRET")

	t.Setenv("NOTIFICATION_SECRET", "s3cret")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.NotificationSecret)
}
