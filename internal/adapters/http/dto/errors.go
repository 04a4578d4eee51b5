// Package dto holds the JSON shapes of the manager and review APIs.
package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

// Error codes of the JSON APIs.
const (
	ErrorCodeBadRequest  = "BAD_REQUEST"
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeForbidden   = "FORBIDDEN"
	ErrorCodeNotFound    = "NOT_FOUND"
	ErrorCodeConflict    = "CONFLICT"
	ErrorCodeTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)

// ErrorResponse is the error envelope of the JSON APIs.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail carries a machine-readable code, a message and, for
// validation failures, one message per field.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewErrorResponse creates an envelope without details.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// NewErrorResponseWithDetails creates an envelope with field messages.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID sets the trace id and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// StatusFor returns the HTTP status of an error code.
func StatusFor(code string) int {
	switch code {
	case ErrorCodeBadRequest, ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MapDomainError maps err to a status and envelope. Messages of unavailable
// and unexpected errors are replaced so internals never reach the caller.
func MapDomainError(err error) (int, *ErrorResponse) {
	var (
		code    string
		message = err.Error()
	)

	switch {
	case domain.IsNotFound(err):
		code = ErrorCodeNotFound
	case domain.IsConflict(err):
		code = ErrorCodeConflict
	case domain.IsValidation(err):
		code = ErrorCodeValidation
	case domain.IsForbidden(err):
		code = ErrorCodeForbidden
	case domain.IsUnavailable(err):
		code, message = ErrorCodeUnavailable, "service temporarily unavailable"
	default:
		code, message = ErrorCodeInternal, "an internal error occurred"
	}

	resp := NewErrorResponse(code, message)

	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		resp.Error.Details = map[string]string{verr.Field: verr.Message}
	}

	return StatusFor(code), resp
}

// TraceID returns the active span's trace id, or the request id echoed by
// the request id middleware when tracing is off.
func TraceID(c *gin.Context) string {
	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return c.Writer.Header().Get("X-Request-ID")
}

// HandleError writes the envelope for err. Server-side failures are logged
// with their cause.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
			"status", status,
			"error", err.Error(),
		)
	}

	c.JSON(status, resp.WithTraceID(TraceID(c)))
}

// Abort stops the handler chain with an envelope for code.
func Abort(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(StatusFor(code), NewErrorResponse(code, message).WithTraceID(TraceID(c)))
}
