package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuotationStatus is the lifecycle state of a fee quotation.
type QuotationStatus string

// Quotation states.
const (
	StatusPending   QuotationStatus = "pending"
	StatusRequested QuotationStatus = "requested"
	StatusPresented QuotationStatus = "presented"
	StatusAccepted  QuotationStatus = "accepted"
	StatusDeclined  QuotationStatus = "declined"
	StatusError     QuotationStatus = "error"
	StatusExpired   QuotationStatus = "expired"
	StatusVoided    QuotationStatus = "voided"
)

// ActiveStatuses may still be voided or progressed.
var ActiveStatuses = []QuotationStatus{StatusPending, StatusRequested, StatusPresented}

// ReusableStatuses are the states get-or-create may hand back to a caller.
var ReusableStatuses = []QuotationStatus{StatusPending, StatusRequested, StatusPresented, StatusAccepted}

// WebhookTargetStatuses are the states an inbound callback may resolve to.
var WebhookTargetStatuses = []QuotationStatus{
	StatusPending, StatusRequested, StatusPresented, StatusAccepted, StatusDeclined,
}

// IsActive reports whether the status is pending, requested or presented.
func (s QuotationStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusRequested, StatusPresented:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible from the
// status, webhook re-delivery aside.
func (s QuotationStatus) IsTerminal() bool {
	return !s.IsActive()
}

// Valid reports whether s names a known state.
func (s QuotationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRequested, StatusPresented, StatusAccepted,
		StatusDeclined, StatusError, StatusExpired, StatusVoided:
		return true
	default:
		return false
	}
}

// Quotation is a single fee-estimate transaction for one (article, author) pair.
type Quotation struct {
	ID        int64
	ArticleID int64
	JournalID int64
	AuthorID  int64
	Status    QuotationStatus

	ExternalQuoteID string
	QuotationURL    string
	ErrorMessage    string

	// APIResponse and WebhookPayload are stored verbatim for audit.
	APIResponse    json.RawMessage
	WebhookPayload json.RawMessage

	WebhookReceivedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         *time.Time
}

// NewQuotation returns a pending quotation for the article and author.
func NewQuotation(articleID, journalID, authorID int64, now time.Time) *Quotation {
	return &Quotation{
		ArticleID: articleID,
		JournalID: journalID,
		AuthorID:  authorID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsExpired reports whether the quotation has an expiry in the past.
func (q *Quotation) IsExpired(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

// IsAccepted reports whether the author accepted the quote.
func (q *Quotation) IsAccepted() bool {
	return q.Status == StatusAccepted
}

// MarkRequested records that the external call is about to be issued.
func (q *Quotation) MarkRequested(now time.Time) error {
	if q.Status != StatusPending {
		return q.invalidTransition(StatusRequested)
	}

	q.Status = StatusRequested
	q.UpdatedAt = now

	return nil
}

// Present stores a successful API result and moves the quotation to presented.
func (q *Quotation) Present(quoteID, url string, response json.RawMessage, now time.Time) error {
	if q.Status != StatusPending && q.Status != StatusRequested {
		return q.invalidTransition(StatusPresented)
	}

	q.Status = StatusPresented
	q.ExternalQuoteID = quoteID
	q.QuotationURL = url
	q.APIResponse = response
	q.UpdatedAt = now

	return nil
}

// Fail records a terminal error with a human-readable message.
func (q *Quotation) Fail(message string, now time.Time) error {
	if !q.Status.IsActive() {
		return q.invalidTransition(StatusError)
	}

	q.Status = StatusError
	q.ErrorMessage = message
	q.UpdatedAt = now

	return nil
}

// Void invalidates an active quotation, keeping the reason in ErrorMessage.
func (q *Quotation) Void(reason string, now time.Time) error {
	if !q.Status.IsActive() {
		return q.invalidTransition(StatusVoided)
	}

	q.Status = StatusVoided
	q.ErrorMessage = reason
	q.UpdatedAt = now

	return nil
}

// Expire marks an active quotation as expired.
func (q *Quotation) Expire(now time.Time) error {
	if !q.Status.IsActive() {
		return q.invalidTransition(StatusExpired)
	}

	q.Status = StatusExpired
	q.UpdatedAt = now

	return nil
}

// Accept applies an accepted webhook. Re-delivery overwrites payload and time.
func (q *Quotation) Accept(payload json.RawMessage, now time.Time) error {
	return q.settle(StatusAccepted, payload, now)
}

// Decline applies a declined webhook. Re-delivery overwrites payload and time.
func (q *Quotation) Decline(payload json.RawMessage, now time.Time) error {
	return q.settle(StatusDeclined, payload, now)
}

func (q *Quotation) settle(to QuotationStatus, payload json.RawMessage, now time.Time) error {
	switch q.Status {
	case StatusPresented, StatusAccepted, StatusDeclined:
	default:
		return q.invalidTransition(to)
	}

	q.Status = to
	q.WebhookPayload = payload
	q.WebhookReceivedAt = &now
	q.UpdatedAt = now

	return nil
}

func (q *Quotation) invalidTransition(to QuotationStatus) error {
	return &TransitionError{From: q.Status, To: to}
}

// TransitionError reports a state change the lifecycle does not allow.
type TransitionError struct {
	From QuotationStatus
	To   QuotationStatus
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("quotation cannot move from %s to %s", e.From, e.To)
}

// Unwrap exposes both ErrInvalidTransition and ErrConflict to errors.Is.
func (e *TransitionError) Unwrap() []error {
	return []error{ErrInvalidTransition, ErrConflict}
}
