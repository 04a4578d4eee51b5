package events

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

// Noop discards events, logging them at debug level. It is used when no
// broker is configured.
type Noop struct {
	logger *slog.Logger
}

var _ ports.EventPublisher = (*Noop)(nil)

// NewNoop creates a discarding publisher.
func NewNoop(logger *slog.Logger) *Noop {
	if logger == nil {
		logger = slog.Default()
	}

	return &Noop{logger: logger.With(slog.String("component", "events.Noop"))}
}

// Publish logs and drops event.
func (n *Noop) Publish(ctx context.Context, event ports.Event) error {
	n.logger.DebugContext(ctx, "event dropped", slog.String("event_type", event.EventType()))

	return nil
}
