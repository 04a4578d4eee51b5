package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/clients"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
	"github.com/jsamuelsen/fee-quotation-service/internal/render"
)

// maxQuoteResponseBytes bounds the stored response body.
const maxQuoteResponseBytes = 1 << 20

// QuotationClient calls journal-configured quotation APIs. Each request
// names its own absolute URL, so one client serves every journal.
type QuotationClient struct {
	BaseAdapter
	logger *slog.Logger
}

// Compile-time interface check.
var _ ports.QuotationAPI = (*QuotationClient)(nil)

// NewQuotationClient wraps client. The client should be built without
// retries since quotation requests are not idempotent. Its breakers are per
// host, so one journal's failing API does not block the others.
func NewQuotationClient(client *clients.Client, logger *slog.Logger) *QuotationClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &QuotationClient{
		BaseAdapter: NewBaseAdapter(client, "quotation-api"),
		logger:      logger.With(slog.String("component", "acl.QuotationClient")),
	}
}

// RequestQuote POSTs req.Body to req.URL and decodes the JSON answer.
func (c *QuotationClient) RequestQuote(ctx context.Context, req ports.QuoteRequest) (*ports.QuoteResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	logger := logging.FromContextOr(ctx, c.logger)
	logger.Log(ctx, logging.LevelTrace, "quotation request",
		slog.String("url", req.URL),
		slog.String("body", string(req.Body)),
	)

	resp, err := c.Client().Post(ctx, req.URL, req.Body, req.Headers)
	if err != nil {
		return nil, translateQuoteError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteResponseBytes))
	if err != nil {
		return nil, translateQuoteError(ctx, err)
	}

	logger.Log(ctx, logging.LevelTrace, "quotation response",
		slog.Int("status", resp.StatusCode),
		slog.String("body", string(raw)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var data any
	if err := render.Decode(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQuoteMalformed, err)
	}

	return &ports.QuoteResponse{
		StatusCode: resp.StatusCode,
		Raw:        json.RawMessage(raw),
		Data:       data,
	}, nil
}

// translateQuoteError reduces client failures to the messages shown to authors.
func translateQuoteError(ctx context.Context, err error) error {
	var (
		netErr    net.Error
		statusErr *clients.StatusError
		urlErr    *url.Error
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil,
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ports.ErrQuoteTimeout, err)
	case errors.Is(err, clients.ErrCircuitOpen):
		return fmt.Errorf("connection error: %w", err)
	case errors.As(err, &statusErr):
		return fmt.Errorf("%d %s", statusErr.StatusCode, http.StatusText(statusErr.StatusCode))
	case errors.As(err, &urlErr):
		return fmt.Errorf("connection error: %w", urlErr.Err)
	default:
		return err
	}
}
