package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

// Recovery turns a handler panic into a logged stack trace and a generic 500
// envelope. It must run first so it wraps every other middleware.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logging.FromContextOr(c.Request.Context(), logger).ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			dto.Abort(c, dto.ErrorCodeInternal, "an internal error occurred")
		}()

		c.Next()
	}
}
