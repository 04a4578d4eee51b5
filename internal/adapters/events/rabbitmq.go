// Package events publishes quotation status changes to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

// Config configures the broker connection.
type Config struct {
	URL string

	// Exchange is a durable topic exchange; events are routed by EventType.
	Exchange string
}

// RabbitMQ publishes events as persistent JSON messages.
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// Compile-time interface checks.
var (
	_ ports.EventPublisher  = (*RabbitMQ)(nil)
	_ ports.OptionalChecker = (*RabbitMQ)(nil)
)

// NewRabbitMQ dials the broker and declares the exchange.
func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	if cfg.Exchange == "" {
		return nil, errors.New("exchange is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	logger = logger.With(slog.String("component", "events.RabbitMQ"))
	logger.Info("connected to rabbitmq", slog.String("exchange", cfg.Exchange))

	return &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// Publish sends event with its type as routing key.
func (r *RabbitMQ) Publish(ctx context.Context, event ports.Event) error {
	body, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(ctx, r.exchange, event.EventType(), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         event.EventType(),
		Body:         body,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return domain.NewUnavailableError("rabbitmq", err.Error())
	}

	r.logger.DebugContext(ctx, "published event", slog.String("event_type", event.EventType()))

	return nil
}

// Name implements ports.HealthChecker.
func (r *RabbitMQ) Name() string { return "rabbitmq" }

// Check reports whether the connection is still open.
func (r *RabbitMQ) Check(_ context.Context) error {
	if r.conn.IsClosed() {
		return errors.New("connection closed")
	}

	return nil
}

// Optional marks event delivery as non-critical.
func (r *RabbitMQ) Optional() bool { return true }

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		_ = r.channel.Close()
	}

	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}
