// Package main is the entry point for the fee quotation service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/cache"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/clients"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/events"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/fee-quotation-service/internal/app"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/config"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/telemetry"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Load a .env file for local runs; real environments set variables directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	// 2. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 3. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 4. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 5. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	healthRegistry := ports.NewHealthRegistry()

	// 6. Open the quotation store
	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := sqlstore.Migrate(ctx, db, logger); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	quotationStore := sqlstore.NewQuotationStore(db)

	var configurations ports.ConfigurationRepository = sqlstore.NewConfigurationStore(db)

	checkers := []ports.HealthChecker{sqlstore.NewHealthChecker(db)}

	// 7. Optional Redis cache in front of journal configurations
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cache.Config{URL: cfg.Cache.URL, Prefix: cfg.Cache.Prefix})
		if err != nil {
			return fmt.Errorf("creating redis cache: %w", err)
		}
		defer redisCache.Close()

		configurations = cache.NewConfigurationRepository(configurations, redisCache, cfg.Cache.TTL, logger)
		checkers = append(checkers, redisCache)
	}

	// 8. Quotation events go to RabbitMQ when enabled
	var publisher ports.EventPublisher = events.NewNoop(logger)

	if cfg.Events.Enabled {
		broker, err := events.NewRabbitMQ(events.Config{URL: cfg.Events.URL, Exchange: cfg.Events.Exchange}, logger)
		if err != nil {
			return fmt.Errorf("connecting to event broker: %w", err)
		}
		defer broker.Close()

		publisher = broker
		checkers = append(checkers, broker)
	}

	// 9. Downstream clients (ACL pattern)
	hostHTTP, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Host.BaseURL,
		ServiceName: cfg.Services.Host.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating host platform client: %w", err)
	}

	hostClient := acl.NewHostClient(hostHTTP)
	checkers = append(checkers, hostClient)

	// Quotation APIs are per-journal absolute URLs, each with its own
	// breaker. A request is a single attempt bounded by the quotation timeout.
	quotationHTTP, err := clients.New(&clients.Config{
		ServiceName: "quotation-api",
		Timeout:     cfg.Quotation.APITimeout,
		Retry:       config.RetryConfig{MaxAttempts: 1},
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating quotation API client: %w", err)
	}

	quotationClient := acl.NewQuotationClient(quotationHTTP, logger)

	for _, checker := range checkers {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	// 10. Application services
	quotationService := app.NewQuotationService(app.QuotationServiceConfig{
		Quotations:      quotationStore,
		Configurations:  configurations,
		Host:            hostClient,
		API:             quotationClient,
		Directory:       hostClient,
		Events:          publisher,
		Transactor:      sqlstore.NewTransactionManager(db),
		APITimeout:      cfg.Quotation.APITimeout,
		DefaultValidity: cfg.Quotation.DefaultValidity,
		Logger:          logger,
	})

	webhookService := app.NewWebhookService(app.WebhookServiceConfig{
		Quotations:       quotationStore,
		Configurations:   configurations,
		Host:             hostClient,
		Events:           publisher,
		RequireSignature: cfg.Quotation.Webhook.RequireSignature,
		Logger:           logger,
	})

	configurationService := app.NewConfigurationService(app.ConfigurationServiceConfig{
		Configurations: configurations,
		Quotations:     quotationStore,
		Host:           hostClient,
		Logger:         logger,
	})

	// 11. Handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)

	// 12. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 13. Setup router with all middleware and routes
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:           logger,
		AuthConfig:       &cfg.Auth,
		AppConfig:        &cfg.App,
		HealthHandler:    handlers.NewHealthHandler(healthRegistry, buildInfo),
		QuotationHandler: handlers.NewQuotationHandler(quotationService, cfg.Quotation.PublicURL),
		WebhookHandler:   handlers.NewWebhookHandler(webhookService),
		ManagerHandler:   handlers.NewManagerHandler(configurationService),
		ManagerRole:      cfg.Quotation.ManagerRole,
		Timeout:          http.DefaultRequestTimeout,
	})

	// 14. Start server (non-blocking)
	serverErr := server.Start()

	// 15. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	// Listen for OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		// Server error during startup or runtime
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	// Graceful shutdown sequence
	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	// Stop accepting new requests, drain in-flight
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
