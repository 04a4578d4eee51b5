package clients

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/config"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/fee-quotation-service/internal/adapters/clients"

const (
	defaultTimeout = 30 * time.Second
	jitterFactor   = 0.25
)

// Config configures a Client.
type Config struct {
	// BaseURL prefixes relative paths. Absolute http(s) URLs, such as a
	// journal's quotation endpoint, are requested as given.
	BaseURL string

	// ServiceName labels logs, spans and metrics.
	ServiceName string

	// Timeout bounds one attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry config.RetryConfig

	// Circuit configures the breakers. A zero MaxFailures disables them.
	Circuit config.CircuitBreakerConfig

	// Transport sizes the connection pool. Zero fields take net/http defaults.
	Transport config.TransportConfig

	Logger *slog.Logger
}

// Client calls a downstream HTTP service with retries, one circuit breaker
// per host, trace propagation and request metrics. Quotation APIs differ per
// journal, so a failing billing system only trips its own breaker.
type Client struct {
	http    *http.Client
	cfg     Config
	baseURL string
	logger  *slog.Logger
	tracer  trace.Tracer

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker

	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// New validates cfg and builds the client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := &Client{
		cfg:      *cfg,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		tracer:   otel.Tracer(instrumentationName),
		breakers: make(map[string]*CircuitBreaker),
	}

	c.cfg.Timeout = cmp.Or(c.cfg.Timeout, defaultTimeout)
	c.cfg.Retry.MaxAttempts = max(c.cfg.Retry.MaxAttempts, 1)

	c.logger = cmp.Or(cfg.Logger, slog.Default()).With(slog.String("downstream", cfg.ServiceName))

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = cmp.Or(cfg.Transport.MaxIdleConns, transport.MaxIdleConns)
	transport.MaxIdleConnsPerHost = cmp.Or(cfg.Transport.MaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
	transport.IdleConnTimeout = cmp.Or(cfg.Transport.IdleConnTimeout, transport.IdleConnTimeout)

	c.http = &http.Client{Timeout: c.cfg.Timeout, Transport: transport}

	meter := otel.Meter(instrumentationName)

	var err error

	c.duration, err = meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of outbound requests including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	c.total, err = meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Outbound requests by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return c, nil
}

// Get requests path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Post sends body with header added. The content type defaults to
// application/json. The body is replayed on retry.
func (c *Client) Post(ctx context.Context, path string, body []byte, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, req)
}

// Do sends req. Transport errors and 5xx responses are retried while
// attempts remain; a request without GetBody is sent once. Responses below
// 500 are returned to the caller, who owns the body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	host := req.URL.Host
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("downstream", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("host", host),
		slog.String("path", req.URL.Path),
	)

	breaker := c.breaker(host)
	if !breaker.Allow() {
		c.record(ctx, req.Method, host, 0, start, "circuit_open")
		logger.Warn("request blocked by open circuit")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.cfg.ServiceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("server.address", host),
			attribute.String("peer.service", c.cfg.ServiceName),
		),
	)
	defer span.End()

	propagateIDs(ctx, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.attempt(ctx, req, logger)
	if err != nil {
		breaker.RecordFailure()
		span.SetStatus(codes.Error, err.Error())

		if ctx.Err() != nil {
			c.record(ctx, req.Method, host, 0, start, "canceled")
			return nil, err
		}

		c.record(ctx, req.Method, host, 0, start, "error")
		logger.Error("request failed", slog.Duration("duration", time.Since(start)), slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	breaker.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	c.record(ctx, req.Method, host, resp.StatusCode, start, strconv.Itoa(resp.StatusCode/100)+"xx")
	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

// CircuitState returns the breaker state for the base URL's host.
func (c *Client) CircuitState() State {
	host := c.baseURL
	if _, rest, ok := strings.Cut(host, "://"); ok {
		host, _, _ = strings.Cut(rest, "/")
	}

	return c.CircuitStateFor(host)
}

// CircuitStateFor returns the breaker state for host (host[:port]). Hosts
// never called are closed.
func (c *Client) CircuitStateFor(host string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.breakers[host].State()
}

// attempt runs the retry loop and returns the first response below 500.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	attempts := c.cfg.Retry.MaxAttempts
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		attempts = 1
	}

	var lastErr error

	for n := range attempts {
		if n > 0 {
			wait := c.backoff(n)
			logger.Debug("retrying request", slog.Int("attempt", n+1), slog.Duration("backoff", wait))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewinding request body: %w", err)
				}

				req.Body = body
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))

		switch {
		case err != nil && retryable(err):
			lastErr = err
		case err != nil:
			return nil, err
		case resp.StatusCode >= http.StatusInternalServerError:
			_ = resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode}
		default:
			return resp, nil
		}

		logger.Debug("attempt failed", slog.Int("attempt", n+1), slog.Any("error", lastErr))
	}

	return nil, lastErr
}

// breaker returns the breaker for host, creating it on first use. It is nil
// when breakers are disabled.
func (c *Client) breaker(host string) *CircuitBreaker {
	if c.cfg.Circuit.MaxFailures <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   c.cfg.Circuit.MaxFailures,
		Timeout:       c.cfg.Circuit.Timeout,
		HalfOpenLimit: c.cfg.Circuit.HalfOpenLimit,
	})

	logger := c.logger.With(slog.String("host", host))
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	})

	c.breakers[host] = cb

	return cb
}

// resolve joins a relative path onto the base URL.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// backoff returns the wait before attempt n (n >= 1): exponential from the
// initial interval, capped, with up to 25% jitter either way.
func (c *Client) backoff(n int) time.Duration {
	r := c.cfg.Retry
	d := min(float64(r.InitialInterval)*math.Pow(r.Multiplier, float64(n)), float64(r.MaxInterval))

	//nolint:gosec // jitter needs no crypto randomness
	return time.Duration(d + d*jitterFactor*(rand.Float64()*2-1))
}

func (c *Client) record(ctx context.Context, method, host string, status int, start time.Time, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("server.address", host),
		attribute.String("peer.service", c.cfg.ServiceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	opt := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, time.Since(start).Seconds(), opt)
	c.total.Add(ctx, 1, opt)
}

// propagateIDs forwards the inbound request and correlation ids.
func propagateIDs(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}
}

// retryable reports whether a transport error may succeed on another
// attempt: timeouts and connection failures, never cancellation.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
