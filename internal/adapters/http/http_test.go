package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serverConfig(maxBody int64) *config.ServerConfig {
	return &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: maxBody,
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{host: "0.0.0.0", port: 8080, want: "0.0.0.0:8080"},
		{host: "::1", port: 8443, want: "[::1]:8443"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := serverConfig(1 << 20)
			cfg.Host, cfg.Port = tt.host, tt.port

			assert.Equal(t, tt.want, New(cfg, discardLogger()).Addr())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(serverConfig(1<<20), discardLogger())
	errCh := srv.Start()

	time.Sleep(50 * time.Millisecond)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case _, open := <-errCh:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("error channel not closed after shutdown")
	}
}

func TestLimitBody(t *testing.T) {
	srv := New(serverConfig(64), discardLogger())
	srv.Engine().POST("/webhook/:journal_code/", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "Invalid JSON payload")
			return
		}

		c.String(http.StatusOK, "%d", len(body))
	})

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook/oae/",
			strings.NewReader(`{"quote_id":"Q-1","status":"paid"}`)))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook/oae/",
			strings.NewReader(strings.Repeat("x", 65))))

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeTooLarge, resp.Error.Code)
	})

	t.Run("undeclared length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/oae/",
			io.NopCloser(strings.NewReader(strings.Repeat("x", 65))))
		req.ContentLength = -1

		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:           discardLogger(),
		AuthConfig:       &config.AuthConfig{},
		AppConfig:        &config.AppConfig{Name: "fee-quotation-service"},
		HealthHandler:    handlers.NewHealthHandler(nil, handlers.NewBuildInfo("1.2.0", "abc123", "")),
		QuotationHandler: handlers.NewQuotationHandler(nil, ""),
		WebhookHandler:   handlers.NewWebhookHandler(nil),
		ManagerHandler:   handlers.NewManagerHandler(nil),
		Timeout:          DefaultRequestTimeout,
	})

	return engine
}

func TestSetupRouter_Routes(t *testing.T) {
	engine := newTestRouter(t)

	registered := make(map[string]bool)
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/metrics",
		"POST /webhook/:journal_code/",
		"POST /request/:article_id/",
		"GET /status/:quotation_id/",
		"GET /api/v1/articles/:article_id/fee-quotation",
		"DELETE /api/v1/manager/articles/:article_id/quotations",
		"GET /api/v1/manager/:journal_code/configuration",
		"PUT /api/v1/manager/:journal_code/configuration",
		"POST /api/v1/manager/:journal_code/configuration/secret",
		"GET /api/v1/manager/:journal_code/quotations",
		"GET /api/v1/manager/:journal_code/quotations/:quotation_id",
	} {
		assert.True(t, registered[route], route)
	}
}

func TestSetupRouter_Authorization(t *testing.T) {
	engine := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		header http.Header
		status int
	}{
		{name: "liveness is public", method: http.MethodGet, path: "/-/live", status: http.StatusOK},
		{name: "request without subject", method: http.MethodPost, path: "/request/1/", status: http.StatusForbidden},
		{name: "status without subject", method: http.MethodGet, path: "/status/1/", status: http.StatusForbidden},
		{
			name:   "review without subject",
			method: http.MethodGet,
			path:   "/api/v1/articles/1/fee-quotation",
			status: http.StatusForbidden,
		},
		{
			name:   "manager as author",
			method: http.MethodGet,
			path:   "/api/v1/manager/oae/configuration",
			header: http.Header{"X-User-Id": {"900"}, "X-User-Roles": {"author"}},
			status: http.StatusForbidden,
		},
		{
			name:   "cascade delete without role",
			method: http.MethodDelete,
			path:   "/api/v1/manager/articles/1/quotations",
			header: http.Header{"X-User-Id": {"900"}},
			status: http.StatusForbidden,
		},
		{name: "unknown route", method: http.MethodGet, path: "/quotes/1", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != nil {
				req.Header = tt.header
			}

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

			if tt.status == http.StatusOK {
				return
			}

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, w.Header().Get("X-Request-ID"), resp.TraceID)

			if tt.status == http.StatusNotFound {
				assert.Equal(t, dto.ErrorCodeNotFound, resp.Error.Code)
			} else {
				assert.Equal(t, dto.ErrorCodeForbidden, resp.Error.Code)
			}
		})
	}
}

func TestSetupRouter_CustomManagerRole(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:         discardLogger(),
		AuthConfig:     &config.AuthConfig{SubjectHeader: "X-Account", RolesHeader: "X-Account-Roles"},
		AppConfig:      &config.AppConfig{Name: "fee-quotation-service"},
		ManagerHandler: handlers.NewManagerHandler(nil),
		ManagerRole:    "journal-manager",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/manager/oae/configuration", nil)
	req.Header.Set("X-Account", "12")
	req.Header.Set("X-Account-Roles", DefaultManagerRole)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
