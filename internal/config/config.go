package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// PayPal
	PayPalClientID     string
	PayPalClientSecret string
	PayPalBaseURL      string
	PayPalCurrency     string

	// Mailgun
	MailgunAPIKey    string
	MailgunDomain    string
	MailgunFromEmail string
	MailgunBaseURL   string

	// NotificationURL, when set, receives order confirmations as JSON
	// instead of sending them through Mailgun from this process.
	NotificationURL string
	// NotificationSecret guards the hosted notification endpoint. The
	// endpoint is disabled without it.
	NotificationSecret string

	// Checkout sessions
	RedisURL           string
	CheckoutSessionTTL time.Duration

	// Order events
	KafkaBrokers    []string
	KafkaOrderTopic string

	// Admin
	ConfirmationSecret string

	// SettingsCacheTTL bounds how long an instance serves its copy of the
	// product settings.
	SettingsCacheTTL time.Duration

	// Reconciliation
	ReconcileAfter time.Duration

	// Server
	Port           string
	Environment    string
	BaseURL        string
	LogLevel       string
	AllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "product-images"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		PayPalClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
		PayPalBaseURL:      getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
		PayPalCurrency:     getEnv("PAYPAL_CURRENCY", "USD"),

		MailgunAPIKey:    getEnv("MAILGUN_API_KEY", ""),
		MailgunDomain:    getEnv("MAILGUN_DOMAIN", ""),
		MailgunFromEmail: getEnv("MAILGUN_FROM_EMAIL", ""),
		MailgunBaseURL:   getEnv("MAILGUN_BASE_URL", "https://api.mailgun.net"),

		NotificationURL:    getEnv("NOTIFICATION_URL", ""),
		NotificationSecret: getEnv("NOTIFICATION_SECRET", ""),

		RedisURL:           getEnv("REDIS_URL", ""),
		CheckoutSessionTTL: getEnvDuration("CHECKOUT_SESSION_TTL", 2*time.Hour),

		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "orders"),

		ConfirmationSecret: getEnv("CONFIRMATION_SECRET", ""),

		SettingsCacheTTL: getEnvDuration("SETTINGS_CACHE_TTL", 30*time.Second),

		ReconcileAfter: getEnvDuration("RECONCILE_AFTER", 30*time.Minute),

		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),
	}

	if cfg.ConfirmationSecret == "" {
		cfg.ConfirmationSecret = cfg.SupabaseJWTSecret
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.IsProduction() {
		if c.PayPalClientID == "" || c.PayPalClientSecret == "" {
			return fmt.Errorf("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required in production")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
	}
	if c.NotificationURL != "" && c.NotificationSecret == "" {
		return fmt.Errorf("NOTIFICATION_SECRET is required when NOTIFICATION_URL is set")
	}
	if c.CheckoutSessionTTL <= 0 {
		return fmt.Errorf("CHECKOUT_SESSION_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
