package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/mocks"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires the services to an in-memory store and mocked collaborators.
type fixture struct {
	now        time.Time
	quotations *sqlstore.QuotationStore
	configs    *sqlstore.ConfigurationStore
	host       *mocks.MockHostPlatform
	api        *mocks.MockQuotationAPI
	events     *mocks.MockEventPublisher
	svc        *QuotationService
	webhooks   *WebhookService
	manager    *ConfigurationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()

	db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(ctx, db, discardLogger()))

	f := &fixture{
		now:        t0,
		quotations: sqlstore.NewQuotationStore(db),
		configs:    sqlstore.NewConfigurationStore(db),
		host:       mocks.NewMockHostPlatform(t),
		api:        mocks.NewMockQuotationAPI(t),
		events:     mocks.NewMockEventPublisher(t),
	}

	f.events.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Maybe()

	clock := ports.ClockFunc(func() time.Time { return f.now })

	f.svc = NewQuotationService(QuotationServiceConfig{
		Quotations:     f.quotations,
		Configurations: f.configs,
		Host:           f.host,
		API:            f.api,
		Events:         f.events,
		Transactor:     sqlstore.NewTransactionManager(db),
		Clock:          clock,
		Logger:         discardLogger(),
	})

	f.webhooks = NewWebhookService(WebhookServiceConfig{
		Quotations:       f.quotations,
		Configurations:   f.configs,
		Host:             f.host,
		Events:           f.events,
		Clock:            clock,
		RequireSignature: true,
		Logger:           discardLogger(),
	})

	f.manager = NewConfigurationService(ConfigurationServiceConfig{
		Configurations: f.configs,
		Quotations:     f.quotations,
		Host:           f.host,
		Clock:          clock,
		Logger:         discardLogger(),
	})

	return f
}

func testJournal() domain.Journal {
	return domain.Journal{ID: 1, Code: "oae", Name: "Open Access Economics"}
}

func testArticle() *domain.Article {
	return &domain.Article{
		ID:      101,
		Title:   "Pricing Open Access",
		Journal: testJournal(),
		Section: &domain.Section{ID: 3, Name: "Research Articles"},
		OwnerID: 900,
		Authors: []domain.Author{
			{ID: 11, Order: 1, AccountID: 900, FirstName: "Ada", LastName: "Lovelace", CountryCode: "GB"},
		},
		LastModified: t0.Add(-time.Hour),
	}
}

func testAccount() *domain.Account {
	return &domain.Account{ID: 900, Email: "ada@example.org", FullName: "Ada Lovelace"}
}

// saveConfig stores an enabled configuration for the test journal.
func (f *fixture) saveConfig(t *testing.T, mutate func(*domain.QuotationConfiguration)) *domain.QuotationConfiguration {
	t.Helper()

	cfg := domain.NewQuotationConfiguration(testJournal().ID)
	cfg.IsEnabled = true
	cfg.APIURL = "https://billing.example/quotes"
	cfg.QuotationURLTemplate = "https://billing.example/q/{{quote_id}}"
	cfg.WebhookSecret = "s"
	cfg.CreatedAt = t0
	cfg.UpdatedAt = t0

	if mutate != nil {
		mutate(cfg)
	}

	require.NoError(t, f.configs.Save(context.Background(), cfg))

	return cfg
}

// seed stores a quotation for the test article in the given status.
func (f *fixture) seed(t *testing.T, status domain.QuotationStatus, externalID string) *domain.Quotation {
	t.Helper()

	q := domain.NewQuotation(testArticle().ID, testJournal().ID, testAccount().ID, f.now)
	q.Status = status
	q.ExternalQuoteID = externalID
	require.NoError(t, f.quotations.Create(context.Background(), q))

	return q
}

func (f *fixture) reload(t *testing.T, id int64) *domain.Quotation {
	t.Helper()

	q, err := f.quotations.Get(context.Background(), id)
	require.NoError(t, err)

	return q
}

// quoteResponse builds a 200 response whose Data is raw decoded as JSON.
func quoteResponse(t *testing.T, raw string) *ports.QuoteResponse {
	t.Helper()

	var data any
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	return &ports.QuoteResponse{StatusCode: 200, Raw: json.RawMessage(raw), Data: data}
}
