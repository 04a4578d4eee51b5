package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every configuration problem Validate reports.
var ErrInvalid = errors.New("invalid configuration")

var validate = newValidator()

// newValidator reports fields by their koanf keys so messages name the
// YAML key or APP_ variable to fix.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})

	return v
}

// Validate checks field constraints, then the rules spanning sections. The
// service refuses to start on any failure.
func (c *Config) Validate() error {
	var problems []string

	var verrs validator.ValidationErrors
	if err := validate.Struct(c); err != nil {
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	problems = append(problems, c.crossChecks()...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(problems, "\n  "))
}

// crossChecks returns the rules a struct tag cannot express.
func (c *Config) crossChecks() []string {
	var problems []string

	if c.Quotation.APITimeout > c.Server.WriteTimeout {
		problems = append(problems, fmt.Sprintf(
			"quotation.api_timeout (%s) exceeds server.write_timeout (%s)",
			c.Quotation.APITimeout, c.Server.WriteTimeout))
	}

	if c.Client.Retry.InitialInterval > c.Client.Retry.MaxInterval {
		problems = append(problems, "client.retry.initial_interval exceeds client.retry.max_interval")
	}

	if c.App.Environment == "prod" && !c.Quotation.Webhook.RequireSignature {
		problems = append(problems, "quotation.webhook.require_signature must be true in prod")
	}

	return problems
}

// describe renders a field error as "<key> <problem>", the key being the
// dotted koanf path without the root struct.
func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_if":
		return key + " is required when " + strings.ToLower(fe.Param())
	case "min":
		return key + " must be at least " + fe.Param()
	case "max":
		return key + " must be at most " + fe.Param()
	case "oneof":
		return key + " must be one of: " + fe.Param()
	case "url":
		return key + " must be a valid URL"
	default:
		return key + " fails " + fe.Tag()
	}
}
