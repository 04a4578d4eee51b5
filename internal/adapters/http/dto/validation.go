package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/fee-quotation-service/internal/render"
)

// ErrBinding wraps request bodies and query strings that could not be decoded.
var ErrBinding = errors.New("binding failed")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field errors are reported under
// their JSON or form names so they match what the caller sent.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})

	return validate
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return fld.Name
}

// BindJSON decodes the request body, which must hold exactly one JSON
// document, into v and validates it.
func BindJSON(c *gin.Context, v any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	if err := render.Decode(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validator().Struct(v)
}

// BindQuery decodes the query string into v and validates it.
func BindQuery(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validator().Struct(v)
}

// IsValidationError reports whether err carries validator field errors.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

// FieldErrors returns one message per failing field, keyed by the field's
// namespace below the root struct (e.g. "selected_sections[0]").
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))

	for _, fe := range verrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}

		out[key] = fieldMessage(fe)
	}

	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}

		return "must be at most " + fe.Param()
	default:
		return "failed validation: " + fe.Tag()
	}
}
