// Package ports defines the interfaces the application layer depends on.
// Adapters implement them; the app package never imports an adapter.
//
// Conventions:
//   - context.Context is always the first parameter
//   - methods accept and return domain types, never wire DTOs
//   - failures are reported with domain errors (ErrNotFound, ErrUnavailable, ...)
package ports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
)

// QuotationFilter narrows QuotationRepository.List. Zero fields do not filter.
type QuotationFilter struct {
	ArticleID       int64
	AuthorID        int64
	JournalID       int64
	ExternalQuoteID string
	Statuses        []domain.QuotationStatus

	// BeforeID restricts results to ids lower than the value, for paging.
	BeforeID int64
	Limit    int
}

// QuotationRepository persists quotation records.
type QuotationRepository interface {
	// Create inserts q and assigns its ID.
	Create(ctx context.Context, q *domain.Quotation) error

	// Update stores the mutable fields of q.
	// Returns domain.ErrNotFound if the record no longer exists.
	Update(ctx context.Context, q *domain.Quotation) error

	// Get returns the quotation with the given id or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Quotation, error)

	// List returns matching quotations, newest first.
	List(ctx context.Context, filter QuotationFilter) ([]*domain.Quotation, error)

	// DeleteByArticle removes every quotation of an article and returns the count.
	DeleteByArticle(ctx context.Context, articleID int64) (int64, error)
}

// ConfigurationRepository stores one QuotationConfiguration per journal.
type ConfigurationRepository interface {
	// ConfigFor returns the journal's configuration or domain.ErrNotFound.
	ConfigFor(ctx context.Context, journalID int64) (*domain.QuotationConfiguration, error)

	// Save inserts or replaces the configuration for cfg.JournalID.
	Save(ctx context.Context, cfg *domain.QuotationConfiguration) error
}

// HostPlatform exposes the submission system's journals, articles and accounts.
type HostPlatform interface {
	// JournalByCode returns domain.ErrNotFound for unknown codes.
	JournalByCode(ctx context.Context, code string) (*domain.Journal, error)

	// Article returns the article with its frozen authors.
	Article(ctx context.Context, id int64) (*domain.Article, error)

	// Account returns a user account.
	Account(ctx context.Context, id int64) (*domain.Account, error)

	// ArticleModifiedAt returns the latest change to the article or anything
	// attached to it (authors, files, galleys).
	ArticleModifiedAt(ctx context.Context, id int64) (time.Time, error)
}

// InstitutionDirectory resolves optional secondary institution identifiers.
// A false result means none is known; lookup failures are reported the same way.
type InstitutionDirectory interface {
	RinggoldID(ctx context.Context, organizationID int64) (string, bool)
}

// Errors reported by QuotationAPI implementations.
var (
	// ErrQuoteTimeout indicates the quotation API did not answer in time.
	ErrQuoteTimeout = errors.New("quotation api timed out")

	// ErrQuoteMalformed indicates a 2xx response whose body is not JSON.
	ErrQuoteMalformed = errors.New("quotation api returned malformed body")
)

// QuoteRequest is a single outbound call to a journal's quotation API.
type QuoteRequest struct {
	URL     string
	Body    json.RawMessage
	Headers http.Header
	Timeout time.Duration
}

// QuoteResponse carries the raw and decoded response body.
type QuoteResponse struct {
	StatusCode int
	Raw        json.RawMessage
	Data       any
}

// QuotationAPI calls a third-party fee quotation service.
type QuotationAPI interface {
	// RequestQuote POSTs the body. Non-2xx responses, transport failures,
	// ErrQuoteTimeout and ErrQuoteMalformed are returned as errors.
	RequestQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish sends an event to the configured destination.
	// Returns domain.ErrUnavailable if the messaging system is unreachable.
	Publish(ctx context.Context, event Event) error
}

// Event represents a domain event that can be published.
type Event interface {
	// EventType returns the type identifier used for routing.
	EventType() string

	// Payload returns the event data for serialization.
	Payload() any
}

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value; a zero ttl keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete does not fail when the key is absent.
	Delete(ctx context.Context, key string) error
}

// Clock abstracts time for the application layer.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the current UTC time.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Transactor runs fn in a unit of work. Repositories called with the context
// passed to fn join it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
