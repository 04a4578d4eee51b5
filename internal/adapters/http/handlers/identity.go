package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
)

// accountID returns the signed-in account from the gateway subject claim.
func accountID(c *gin.Context) (int64, error) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.Subject == "" {
		return 0, domain.NewForbiddenError("request", "authentication required")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewForbiddenError("request", "subject is not an account id")
	}

	return id, nil
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}

	return id, nil
}

// respondBindingError writes a 400 for a request body that failed binding or
// struct validation.
func respondBindingError(c *gin.Context, err error) {
	if dto.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrorCodeValidation,
			"request validation failed",
			dto.FieldErrors(err),
		).WithTraceID(dto.TraceID(c)))

		return
	}

	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.ErrorCodeBadRequest,
		"malformed request body",
	).WithTraceID(dto.TraceID(c)))
}
