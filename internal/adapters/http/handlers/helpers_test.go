package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/fee-quotation-service/internal/app"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/mocks"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv serves the fee quotation handlers from an in-memory store with
// mocked host platform and quotation API.
type testEnv struct {
	engine     *gin.Engine
	quotations *sqlstore.QuotationStore
	configs    *sqlstore.ConfigurationStore
	host       *mocks.MockHostPlatform
	api        *mocks.MockQuotationAPI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(ctx, db, logger))

	env := &testEnv{
		quotations: sqlstore.NewQuotationStore(db),
		configs:    sqlstore.NewConfigurationStore(db),
		host:       mocks.NewMockHostPlatform(t),
		api:        mocks.NewMockQuotationAPI(t),
	}

	events := mocks.NewMockEventPublisher(t)
	events.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Maybe()

	clock := ports.ClockFunc(func() time.Time { return t0 })

	quotations := app.NewQuotationService(app.QuotationServiceConfig{
		Quotations:     env.quotations,
		Configurations: env.configs,
		Host:           env.host,
		API:            env.api,
		Events:         events,
		Transactor:     sqlstore.NewTransactionManager(db),
		Clock:          clock,
		Logger:         logger,
	})

	webhooks := app.NewWebhookService(app.WebhookServiceConfig{
		Quotations:       env.quotations,
		Configurations:   env.configs,
		Host:             env.host,
		Events:           events,
		Clock:            clock,
		RequireSignature: true,
		Logger:           logger,
	})

	manager := app.NewConfigurationService(app.ConfigurationServiceConfig{
		Configurations: env.configs,
		Quotations:     env.quotations,
		Host:           env.host,
		Clock:          clock,
		Logger:         logger,
	})

	engine := gin.New()

	NewWebhookHandler(webhooks).RegisterWebhookRoutes(engine)

	qh := NewQuotationHandler(quotations, "https://fees.example")
	authed := engine.Group("", middleware.RequireAuth(nil))
	qh.RegisterAuthorRoutes(authed)
	qh.RegisterReviewRoutes(authed.Group("/api/v1"))
	NewManagerHandler(manager).RegisterManagerRoutes(authed.Group("/api/v1/manager"))

	env.engine = engine

	return env
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
			{ID: 11, Order: 1, AccountID: 900, FirstName: "Ada", LastName: "Lovelace"},
		},
		LastModified: t0.Add(-time.Hour),
	}
}

func (e *testEnv) expectJournal() {
	j := testJournal()
	e.host.EXPECT().JournalByCode(mock.Anything, "oae").Return(&j, nil).Maybe()
}

func (e *testEnv) saveConfig(t *testing.T, mutate func(*domain.QuotationConfiguration)) {
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

	require.NoError(t, e.configs.Save(context.Background(), cfg))
}

func (e *testEnv) seed(t *testing.T, status domain.QuotationStatus, externalID string) *domain.Quotation {
	t.Helper()

	q := domain.NewQuotation(testArticle().ID, testJournal().ID, 900, t0)
	q.Status = status
	q.ExternalQuoteID = externalID
	require.NoError(t, e.quotations.Create(context.Background(), q))

	return q
}

// do sends a request as the given account; an empty account sends no
// identity headers.
func (e *testEnv) do(method, path, account string, body []byte, header http.Header) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if account != "" {
		req.Header.Set("X-User-ID", account)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
