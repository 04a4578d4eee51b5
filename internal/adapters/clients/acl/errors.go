package acl

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/clients"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
)

// maxErrorBytes bounds how much of a failed response is read for details.
const maxErrorBytes = 64 << 10

// hostError is an error body from the host platform. API views answer
// {"detail": "..."}, form views {"errors": {"field": ["message", ...]}}.
type hostError struct {
	Detail string              `json:"detail"`
	Errors map[string][]string `json:"errors"`
}

// firstFieldError returns the alphabetically first field with a message.
func (e hostError) firstFieldError() (field, message string, ok bool) {
	for _, name := range slices.Sorted(maps.Keys(e.Errors)) {
		if msgs := e.Errors[name]; len(msgs) > 0 {
			return name, msgs[0], true
		}
	}

	return "", "", false
}

func readHostError(body io.Reader) hostError {
	var e hostError
	if body == nil {
		return e
	}

	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBytes))
	if err == nil {
		_ = json.Unmarshal(raw, &e)
	}

	return e
}

// MapHTTPError turns a failed host platform call into a domain error.
// clientErr is set when no response arrived. entityID names the missing
// resource on 404. A response below 400 maps to nil.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entityID string) error {
	if clientErr != nil {
		switch {
		case errors.Is(clientErr, clients.ErrCircuitOpen):
			return domain.NewUnavailableError(serviceName, operation+": circuit open")
		case errors.Is(clientErr, clients.ErrMaxRetriesExceeded):
			return domain.NewUnavailableError(serviceName, operation+": retries exhausted")
		default:
			return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s: %v", operation, clientErr))
		}
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	status := resp.StatusCode
	if status < http.StatusBadRequest {
		return nil
	}

	body := readHostError(resp.Body)
	message := cmp.Or(body.Detail, fmt.Sprintf("%s failed with status %d", operation, status))

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, entityID)
	case status == http.StatusConflict:
		return domain.NewConflictError(serviceName, message)
	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(operation, "authentication required")
	case status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)
	}

	if field, msg, ok := body.firstFieldError(); ok {
		return domain.NewValidationError(field, msg)
	}

	return domain.NewValidationError("", message)
}
