package telemetry

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HeaderTraceID echoes the server span's trace id to the caller.
const HeaderTraceID = "X-Trace-ID"

// Middleware opens a server span per request, named after the route, and
// records the otelgin request metrics. Health endpoints under /-/ are not
// traced.
func Middleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !strings.HasPrefix(r.URL.Path, "/-/")
		}),
		otelgin.WithSpanNameFormatter(func(c *gin.Context) string {
			if route := c.FullPath(); route != "" {
				return c.Request.Method + " " + route
			}

			return c.Request.Method
		}),
	)
}

// Annotate copies the route's quotation identifiers onto the active span
// and echoes the trace id. It must run after Middleware.
func Annotate() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		for _, name := range []string{"article_id", "quotation_id", "journal_code"} {
			if v := c.Param(name); v != "" {
				span.SetAttributes(attribute.String("fee_quotation."+name, v))
			}
		}

		c.Next()
	}
}
