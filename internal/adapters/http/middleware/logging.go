package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

// Logging logs each request once it completes, at warn for 4xx and error for
// 5xx. Health endpoints under /-/ and any path in skip are not logged.
func Logging(logger *slog.Logger, skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/-/") || slices.Contains(skip, path) {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		status := c.Writer.Status()

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		// Query strings are not logged.
		logging.FromContextOr(c.Request.Context(), logger).Log(c.Request.Context(), level, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
