// Package domain holds the fee quotation entities, their lifecycle rules and
// the business errors adapters translate to transport responses.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds. The typed errors below unwrap to one of these, so callers
// branch with errors.Is or the Is helpers.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrUnavailable       = errors.New("unavailable")
	ErrInvalidTransition = errors.New("invalid quotation transition")
)

// NotFoundError names a missing quotation, configuration, article or
// journal. ID may be empty.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError returns a *NotFoundError.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a change refused because of the entity's state.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError returns a *ConflictError.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError reports bad input. Field is empty when the problem is
// not tied to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns a *ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError reports an operation the caller may not perform.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("operation %q forbidden", e.Operation)
	}

	return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// NewForbiddenError returns a *ForbiddenError.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError reports a dependency (the host platform, the database)
// that could not serve the request.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("service %q unavailable", e.Service)
	}

	return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError returns an *UnavailableError.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

func IsNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool          { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool        { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool         { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool       { return errors.Is(err, ErrUnavailable) }
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }
