package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// FromContext returns the request-scoped logger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, slog.Default())
}

// FromContextOr returns the request-scoped logger, or fallback.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return logger
		}
	}

	return fallback
}

// WithContext stores logger on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithRequestID scopes the context logger to a request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, "request_id", id)
}

// WithCorrelationID scopes the context logger to a correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return with(ctx, "correlation_id", id)
}

func with(ctx context.Context, key, value string) context.Context {
	return WithContext(ctx, FromContext(ctx).With(slog.String(key, value)))
}
