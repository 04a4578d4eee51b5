package acl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/clients"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/render"
)

// maxBodyBytes bounds a decoded host response.
const maxBodyBytes = 4 << 20

// BaseAdapter holds the client and the name used in domain errors.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter returns a BaseAdapter for serviceName.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName names the upstream in errors and health checks.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get fetches path and returns the open body of a successful response.
// Failures come back as domain errors; entityID identifies the resource
// on 404.
func (a *BaseAdapter) Get(ctx context.Context, path, operation, entityID string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation, entityID)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation, entityID)
	}

	return resp.Body, nil
}

// DecodeResponse reads body as exactly one JSON document and closes it.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result T
	if err := render.Decode(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// DecodeResponseForService decodes like DecodeResponse and reports failures
// as the service being unavailable.
func DecodeResponseForService[T any](body io.ReadCloser, serviceName string) (*T, error) {
	result, err := DecodeResponse[T](body)
	if err != nil {
		return nil, domain.NewUnavailableError(serviceName, err.Error())
	}

	return result, nil
}

// ValidateRequired rejects an empty upstream field.
func ValidateRequired(value, fieldName string) error {
	if value == "" {
		return domain.NewValidationError(fieldName, "is required")
	}

	return nil
}

// ValidatePositive rejects a missing or negative upstream id.
func ValidatePositive[T ~int | ~int64 | ~float64](value T, fieldName string) error {
	if value <= 0 {
		return domain.NewValidationError(fieldName, "must be positive")
	}

	return nil
}

// TranslateSlice translates every item, stopping at the first failure.
func TranslateSlice[E any, D any](items []E, translate func(*E) (*D, error)) ([]*D, error) {
	result := make([]*D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}
