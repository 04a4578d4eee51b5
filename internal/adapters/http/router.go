package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/config"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// DefaultManagerRole is the gateway role that may manage configurations.
const DefaultManagerRole = "editor"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AuthConfig contains authentication header configuration.
	AuthConfig *config.AuthConfig

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// QuotationHandler serves the author-facing endpoints.
	QuotationHandler *handlers.QuotationHandler

	// WebhookHandler receives quotation status callbacks.
	WebhookHandler *handlers.WebhookHandler

	// ManagerHandler serves the journal manager endpoints.
	ManagerHandler *handlers.ManagerHandler

	// ManagerRole is the gateway role required for manager endpoints.
	ManagerRole string

	// Timeout is the default request timeout.
	Timeout time.Duration
}

// SetupRouter installs the middleware chain (recovery, request and
// correlation ids, tracing, request logging) and mounts the route groups:
//   - /-/ (internal): Health endpoints, no auth required
//   - /webhook/ : quotation callbacks, authenticated by HMAC signature
//   - /request/, /status/ : author endpoints, gateway subject required
//   - /api/v1/ : review hook (subject) and manager API (manager role)
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Middleware(cfg.AppConfig.Name),
		telemetry.Annotate(),
		middleware.Logging(cfg.Logger),
	)

	// Health endpoints: no auth, no deadline.
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Register(engine)
	}

	engine.NoRoute(func(c *gin.Context) {
		dto.Abort(c, dto.ErrorCodeNotFound, "route not found")
	})

	if cfg.WebhookHandler != nil {
		cfg.WebhookHandler.RegisterWebhookRoutes(engine)
	}

	if cfg.QuotationHandler != nil {
		author := engine.Group("")
		author.Use(middleware.RequireAuth(cfg.AuthConfig))
		cfg.QuotationHandler.RegisterAuthorRoutes(author)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Deadline(cfg.Timeout))
	}

	setupAPIRoutes(apiV1, cfg)
}

// setupAPIRoutes registers the JSON API routes.
func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	protected := rg.Group("")
	protected.Use(middleware.RequireAuth(cfg.AuthConfig))

	if cfg.QuotationHandler != nil {
		cfg.QuotationHandler.RegisterReviewRoutes(protected)
	}

	if cfg.ManagerHandler != nil {
		role := cfg.ManagerRole
		if role == "" {
			role = DefaultManagerRole
		}

		manager := protected.Group("/manager")
		manager.Use(middleware.RequireRole(cfg.AuthConfig, role))
		cfg.ManagerHandler.RegisterManagerRoutes(manager)
	}
}
