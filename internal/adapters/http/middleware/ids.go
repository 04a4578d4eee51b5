// Package middleware holds the gin middleware of the service.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

// Headers carrying request identity. The request id names one hop; the
// correlation id follows a request across the host platform, this service
// and the quotation APIs it calls.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	correlationIDKey
)

// RequestID accepts or generates the request id.
func RequestID() gin.HandlerFunc {
	return propagateID(HeaderRequestID, func(ctx context.Context, id string) context.Context {
		return logging.WithRequestID(ContextWithRequestID(ctx, id), id)
	})
}

// CorrelationID accepts or generates the correlation id.
func CorrelationID() gin.HandlerFunc {
	return propagateID(HeaderCorrelationID, func(ctx context.Context, id string) context.Context {
		return logging.WithCorrelationID(ContextWithCorrelationID(ctx, id), id)
	})
}

// propagateID takes the id from header or mints a UUID, echoes it on the
// response and stores it on the request context.
func propagateID(header string, store func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(header, id)
		c.Request = c.Request.WithContext(store(c.Request.Context(), id))
		c.Next()
	}
}

// ContextWithRequestID returns ctx carrying the request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID returns ctx carrying the correlation id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// RequestIDFromContext returns the request id, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// CorrelationIDFromContext returns the correlation id, or "" outside a request.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
