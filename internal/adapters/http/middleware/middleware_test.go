package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		middleware gin.HandlerFunc
		header     string
		fromCtx    func(context.Context) string
	}{
		{name: "request id", middleware: RequestID(), header: HeaderRequestID, fromCtx: RequestIDFromContext},
		{name: "correlation id", middleware: CorrelationID(), header: HeaderCorrelationID, fromCtx: CorrelationIDFromContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string

			engine := gin.New()
			engine.Use(tt.middleware)
			engine.POST("/request/:article_id/", func(c *gin.Context) {
				seen = tt.fromCtx(c.Request.Context())
				c.Status(http.StatusOK)
			})

			t.Run("propagates the caller's id", func(t *testing.T) {
				w := serve(engine, http.MethodPost, "/request/101/", http.Header{tt.header: {"host-abc-123"}})

				assert.Equal(t, "host-abc-123", w.Header().Get(tt.header))
				assert.Equal(t, "host-abc-123", seen)
			})

			t.Run("mints a uuid when absent", func(t *testing.T) {
				w := serve(engine, http.MethodPost, "/request/101/", nil)

				id := w.Header().Get(tt.header)
				_, err := uuid.Parse(id)
				require.NoError(t, err)
				assert.Equal(t, id, seen)
			})
		})
	}
}

func TestIDsFromContext_Absent(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))

	ctx := ContextWithCorrelationID(ContextWithRequestID(context.Background(), "r-1"), "c-1")
	assert.Equal(t, "r-1", RequestIDFromContext(ctx))
	assert.Equal(t, "c-1", CorrelationIDFromContext(ctx))
}

func TestExtractClaims(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.AuthConfig
		header  http.Header
		subject string
		roles   []string
	}{
		{
			name:    "default headers",
			header:  http.Header{"X-User-Id": {"900"}, "X-User-Roles": {"author, editor ,"}},
			subject: "900",
			roles:   []string{"author", "editor"},
		},
		{
			name:    "configured headers",
			cfg:     &config.AuthConfig{SubjectHeader: "X-Account", RolesHeader: "X-Account-Roles"},
			header:  http.Header{"X-Account": {" 12 "}, "X-Account-Roles": {"editor"}, "X-User-Id": {"900"}},
			subject: "12",
			roles:   []string{"editor"},
		},
		{
			name:   "anonymous",
			header: http.Header{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/status/1/", nil)
			c.Request.Header = tt.header

			claims := ExtractClaims(c, tt.cfg)
			assert.Equal(t, tt.subject, claims.Subject)
			assert.Equal(t, tt.roles, claims.Roles)
		})
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	engine := gin.New()

	authed := engine.Group("", RequireAuth(nil))
	authed.GET("/status/:quotation_id/", func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).Subject)
	})

	manager := authed.Group("/api/v1/manager", RequireRole(nil, "editor"))
	manager.GET("/:journal_code/configuration", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		path   string
		header http.Header
		status int
		body   string
	}{
		{
			name:   "author status with subject",
			path:   "/status/5/",
			header: http.Header{"X-User-Id": {"900"}},
			status: http.StatusOK,
			body:   "900",
		},
		{
			name:   "author status without subject",
			path:   "/status/5/",
			status: http.StatusForbidden,
		},
		{
			name:   "manager with editor role",
			path:   "/api/v1/manager/oae/configuration",
			header: http.Header{"X-User-Id": {"1"}, "X-User-Roles": {"author,editor"}},
			status: http.StatusOK,
		},
		{
			name:   "manager without editor role",
			path:   "/api/v1/manager/oae/configuration",
			header: http.Header{"X-User-Id": {"900"}, "X-User-Roles": {"author"}},
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, http.MethodGet, tt.path, tt.header)
			require.Equal(t, tt.status, w.Code)

			if tt.status == http.StatusForbidden {
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, dto.ErrorCodeForbidden, resp.Error.Code)

				return
			}

			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireRole_WithoutRequireAuth(t *testing.T) {
	engine := gin.New()
	engine.DELETE("/articles/:article_id/quotations", RequireRole(nil, "editor"), func(c *gin.Context) {
		assert.NotNil(t, GetClaims(c))
		c.Status(http.StatusNoContent)
	})

	w := serve(engine, http.MethodDelete, "/articles/101/quotations", http.Header{"X-User-Roles": {"editor"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLogging(t *testing.T) {
	logger, buf := bufferLogger()

	engine := gin.New()
	engine.Use(Logging(logger, "/webhook/quiet/"))
	engine.GET("/-/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/webhook/:journal_code/", func(c *gin.Context) {
		c.String(http.StatusBadRequest, "Invalid signature")
	})
	engine.GET("/status/:quotation_id/", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/request/:article_id/", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	tests := []struct {
		method string
		path   string
		level  string
		logged bool
	}{
		{method: http.MethodGet, path: "/status/7/?cursor=abc", level: "INFO", logged: true},
		{method: http.MethodPost, path: "/webhook/oae/", level: "WARN", logged: true},
		{method: http.MethodPost, path: "/request/101/", level: "ERROR", logged: true},
		{method: http.MethodGet, path: "/-/live"},
		{method: http.MethodPost, path: "/webhook/quiet/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			buf.Reset()
			serve(engine, tt.method, tt.path, nil)

			if !tt.logged {
				assert.Zero(t, buf.Len())
				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "request completed", entry["msg"])
			assert.NotContains(t, entry["path"], "?")
			assert.NotEmpty(t, entry["route"])
		})
	}
}

func TestRecovery(t *testing.T) {
	logger, buf := bufferLogger()

	engine := gin.New()
	engine.Use(Recovery(logger))
	engine.POST("/request/:article_id/", func(*gin.Context) { panic("template exploded") })
	engine.GET("/status/:quotation_id/", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late failure")
	})

	t.Run("before writing", func(t *testing.T) {
		buf.Reset()
		w := serve(engine, http.MethodPost, "/request/101/", nil)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeInternal, resp.Error.Code)
		assert.NotContains(t, w.Body.String(), "template exploded")

		assert.Contains(t, buf.String(), "panic recovered")
		assert.Contains(t, buf.String(), "template exploded")
	})

	t.Run("after writing", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/status/1/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "partial", w.Body.String())
	})
}

func TestDeadline(t *testing.T) {
	engine := gin.New()
	engine.Use(Deadline(time.Minute))
	engine.GET("/api/v1/articles/:article_id/fee-quotation", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		c.Status(http.StatusOK)
	})

	w := serve(engine, http.MethodGet, "/api/v1/articles/101/fee-quotation", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
