// @title           Solo Drops Backend API
// @version         1.0.0
// @description     Backend API for the Solo Drops single-product storefront: product settings, checkout with PayPal, order tracking and the admin console.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"solo-drops-backend/docs"
	"solo-drops-backend/internal/app"
	"solo-drops-backend/internal/checkout"
	"solo-drops-backend/internal/config"
	"solo-drops-backend/internal/handlers"
	"solo-drops-backend/internal/logger"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/services"
	"solo-drops-backend/internal/shutdown"
	"solo-drops-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg := logger.New(logger.Options{
		Service: "solo-drops-backend",
		Env:     cfg.Environment,
		Level:   cfg.LogLevel,
	})

	if err := run(cfg, lg); err != nil {
		lg.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg *slog.Logger) error {
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	store, closeStore, err := app.OpenStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher := app.NewPublisher(cfg, lg)
	defer closePublisher()

	// Initialize Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		return err
	}

	var storageService *services.StorageService
	settings := services.NewSettingsState(store)
	settings.SetMaxAge(cfg.SettingsCacheTTL)
	catalog := services.NewCatalogService(store)
	orders := services.NewOrderService(store, publisher, cfg.KafkaOrderTopic, cfg.ConfirmationSecret, lg)

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		lg.Warn("storage client not available, uploads are disabled", slog.Any("error", err))
	} else {
		storageService = services.NewStorageService(storageClient, settings, catalog, lg)
	}

	settings.OnChange(func(p models.ProductSettings) {
		lg.Info("product settings updated", slog.String("id", p.ID), slog.String("title", p.Title))
	})
	if _, err := settings.Fetch(ctx); err != nil {
		lg.Warn("failed to load product settings at startup", slog.Any("error", err))
	}

	// Checkout sessions live in Redis when configured
	var sessions checkout.SessionStore = checkout.NewMemoryStore(cfg.CheckoutSessionTTL)
	if cfg.RedisURL != "" {
		redisStore, err := checkout.NewRedisStore(ctx, cfg.RedisURL, cfg.CheckoutSessionTTL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		sessions = redisStore
	}

	mailer := app.NewMailer(cfg, lg)
	workflow := checkout.NewWorkflow(checkout.WorkflowOptions{
		Sessions:    sessions,
		Settings:    settings,
		Orders:      orders,
		Settlements: store,
		Payments:    app.NewPayments(cfg),
		Notifier:    app.NewNotifier(cfg, mailer),
		Currency:    cfg.PayPalCurrency,
		Logger:      lg,
	})

	// Setup router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers.RegisterRoutes(router, cfg, handlers.Handlers{
		Health:        handlers.NewHealthHandler(store),
		Storefront:    handlers.NewStorefrontHandler(settings, catalog),
		Tracking:      handlers.NewTrackingHandler(orders),
		Checkout:      handlers.NewCheckoutHandler(workflow),
		Notifications: handlers.NewNotificationHandler(mailer, cfg.NotificationSecret),
		Auth:          handlers.NewAuthHandler(supabaseClient),
		Settings:      handlers.NewSettingsHandler(settings),
		Orders:        handlers.NewOrdersHandler(orders),
		Catalog:       handlers.NewCatalogHandler(catalog),
		Upload:        handlers.NewUploadHandler(storageService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
