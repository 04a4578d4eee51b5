// Package app contains application services that orchestrate use cases.
// Services depend on ports only; adapters are injected from main.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/payload"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/telemetry"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
	"github.com/jsamuelsen/fee-quotation-service/internal/render"
)

const (
	// DefaultAPITimeout bounds the outbound quotation call.
	DefaultAPITimeout = 30 * time.Second

	// StaleReason is stored on quotations voided because the article changed.
	StaleReason = "Article was modified after quotation was requested."
)

// Messages recorded on quotations that end in the error state.
const (
	msgNotConfigured  = "Fee quotation not configured for this journal."
	msgNotEnabled     = "Fee quotation is not enabled for this journal."
	msgNoAPIURL       = "Fee quotation API URL is not configured."
	msgBadTemplate    = "Invalid request body template: %s"
	msgTimeout        = "Fee quotation API request timed out."
	msgRequestFailed  = "API request failed: %s"
	msgInvalidJSON    = "API response was not valid JSON."
	msgMissingQuoteID = "API response did not contain quote ID in field '%s'. Response: %s"
	msgURLTemplate    = "Failed to build quotation URL from template."
	msgNoQuotationURL = "No quotation URL template configured and API response did not contain a URL."
)

const expiresAtField = "expires_at"

// fallbackURLFields are searched in order when no URL template is configured.
var fallbackURLFields = []string{"url", "quotation_url", "redirect_url", "quote_url"}

// failure is an expected problem that ends the quotation in the error state
// instead of failing the caller.
type failure struct {
	message string
	cause   error
}

func (f *failure) Error() string { return f.message }

func (f *failure) Unwrap() error { return f.cause }

func fail(message string, cause error) error {
	return &failure{message: message, cause: cause}
}

// QuotationService runs the quotation lifecycle for articles.
type QuotationService struct {
	quotations      ports.QuotationRepository
	configs         ports.ConfigurationRepository
	host            ports.HostPlatform
	api             ports.QuotationAPI
	events          ports.EventPublisher
	tx              ports.Transactor
	clock           ports.Clock
	builder         *payload.Builder
	executor        *Executor
	apiTimeout      time.Duration
	defaultValidity time.Duration
	logger          *slog.Logger
}

// QuotationServiceConfig contains the dependencies of the quotation service.
// Events, Transactor, Directory and Clock are optional.
type QuotationServiceConfig struct {
	Quotations     ports.QuotationRepository
	Configurations ports.ConfigurationRepository
	Host           ports.HostPlatform
	API            ports.QuotationAPI
	Directory      ports.InstitutionDirectory
	Events         ports.EventPublisher
	Transactor     ports.Transactor
	Clock          ports.Clock

	// APITimeout defaults to DefaultAPITimeout.
	APITimeout time.Duration

	// DefaultValidity sets expires_at when the API does not return one.
	// Zero leaves such quotations without expiry.
	DefaultValidity time.Duration

	Logger *slog.Logger
}

// NewQuotationService creates a quotation service.
func NewQuotationService(cfg QuotationServiceConfig) *QuotationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock
	}

	tx := cfg.Transactor
	if tx == nil {
		tx = inlineTransactor{}
	}

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = DefaultAPITimeout
	}

	logger = logger.With(slog.String("component", "app.QuotationService"))

	return &QuotationService{
		quotations:      cfg.Quotations,
		configs:         cfg.Configurations,
		host:            cfg.Host,
		api:             cfg.API,
		events:          cfg.Events,
		tx:              tx,
		clock:           clock,
		builder:         payload.NewBuilder(cfg.Directory),
		executor:        NewExecutor(logger),
		apiTimeout:      timeout,
		defaultValidity: cfg.DefaultValidity,
		logger:          logger,
	}
}

// inlineTransactor runs fn without a transaction.
type inlineTransactor struct{}

func (inlineTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *QuotationService) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// GetOrCreate returns the newest reusable quotation for the article and
// author, or stores a fresh pending one when there is none or the newest
// has expired. Older records are never revived.
func (s *QuotationService) GetOrCreate(ctx context.Context, article *domain.Article, authorID int64) (*domain.Quotation, error) {
	existing, err := s.quotations.List(ctx, ports.QuotationFilter{
		ArticleID: article.ID,
		AuthorID:  authorID,
		Statuses:  domain.ReusableStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("listing quotations: %w", err)
	}

	now := s.clock.Now()
	if len(existing) > 0 && !existing[0].IsExpired(now) {
		return existing[0], nil
	}

	q := domain.NewQuotation(article.ID, article.Journal.ID, authorID, now)
	if err := s.quotations.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("creating quotation: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "created quotation",
		slog.Int64("quotation_id", q.ID),
		slog.Int64("article_id", article.ID),
	)
	s.publish(ctx, q)

	return q, nil
}

// RequestInput identifies who asks for a quotation and where callbacks go.
type RequestInput struct {
	Article *domain.Article
	Account *domain.Account

	// Origin is the scheme and host this service is reached on; the webhook
	// callback URL is derived from it.
	Origin string
}

// CallbackURL returns the webhook address for the article's journal.
func (in RequestInput) CallbackURL() string {
	return strings.TrimRight(in.Origin, "/") + "/webhook/" + url.PathEscape(in.Article.Journal.Code) + "/"
}

// quotationRequest is the state shared by the request pipeline steps.
type quotationRequest struct {
	in        RequestInput
	quotation *domain.Quotation
	config    *domain.QuotationConfiguration
	body      json.RawMessage
	headers   http.Header
	response  *ports.QuoteResponse
	quoteID   string
	url       string
	expiresAt *time.Time
}

// RequestForAuthor loads the article and the author's account, checks the
// author owns the article and requests a quotation.
func (s *QuotationService) RequestForAuthor(ctx context.Context, articleID, accountID int64, origin string) (*domain.Quotation, error) {
	article, account, err := Parallel2(ctx,
		func(ctx context.Context) (*domain.Article, error) { return s.host.Article(ctx, articleID) },
		func(ctx context.Context) (*domain.Account, error) { return s.host.Account(ctx, accountID) },
	)
	if err != nil {
		return nil, fmt.Errorf("loading article and account: %w", err)
	}

	if article.OwnerID != account.ID {
		return nil, domain.NewNotFoundError("article", strconv.FormatInt(articleID, 10))
	}

	return s.RequestQuotation(ctx, RequestInput{Article: article, Account: account, Origin: origin})
}

// RequestQuotation asks the journal's quotation API for a quote.
//
// Configuration, template, transport and response problems are recorded on
// the returned quotation, which then has status error; only storage and
// other unexpected failures are returned as errors.
func (s *QuotationService) RequestQuotation(ctx context.Context, in RequestInput) (*domain.Quotation, error) {
	logger := s.log(ctx).With(
		slog.Int64("article_id", in.Article.ID),
		slog.Int64("account_id", in.Account.ID),
	)

	q, err := s.GetOrCreate(ctx, in.Article, in.Account.ID)
	if err != nil {
		telemetry.RecordQuotationRequest("failed")
		return nil, err
	}

	if q.Status == domain.StatusPresented || q.Status == domain.StatusAccepted {
		telemetry.RecordQuotationRequest("reused")
		return q, nil
	}

	req := &quotationRequest{in: in, quotation: q}

	err = Execute(logging.WithContext(ctx, logger), s.executor, Operation[*quotationRequest]{
		Name:     "request_quotation",
		Validate: s.prepareRequest,
		Perform:  s.callAPI,
		Verify:   s.readResponse,
		Archive:  s.storePresented,
	}, req)
	if err == nil {
		telemetry.RecordQuotationRequest("presented")
		logger.InfoContext(ctx, "quotation presented",
			slog.Int64("quotation_id", q.ID),
			slog.String("quotation_url", q.QuotationURL),
		)

		return q, nil
	}

	var f *failure
	if !errors.As(err, &f) {
		telemetry.RecordQuotationRequest("failed")
		return nil, err
	}

	if req.response != nil {
		q.APIResponse = req.response.Raw
	}

	if err := q.Fail(f.message, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.quotations.Update(ctx, q); err != nil {
		telemetry.RecordQuotationRequest("failed")
		return nil, fmt.Errorf("recording quotation error: %w", err)
	}

	telemetry.RecordQuotationRequest("error")
	logger.WarnContext(ctx, "quotation request failed",
		slog.Int64("quotation_id", q.ID),
		slog.String("reason", f.message),
	)
	s.publish(ctx, q)

	return q, nil
}

// prepareRequest resolves the configuration and renders the request.
func (s *QuotationService) prepareRequest(ctx context.Context, req *quotationRequest) error {
	article := req.in.Article

	cfg, err := s.configs.ConfigFor(ctx, article.Journal.ID)
	if domain.IsNotFound(err) {
		return fail(msgNotConfigured, err)
	}

	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	switch {
	case !cfg.IsEnabled:
		return fail(msgNotEnabled, nil)
	case cfg.APIURL == "":
		return fail(msgNoAPIURL, nil)
	}

	values := s.builder.Build(ctx, payload.Input{
		Article:     article,
		Account:     req.in.Account,
		CallbackURL: req.in.CallbackURL(),
	})

	body := render.Render(cfg.RequestBodyTemplate, values)

	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return fail(fmt.Sprintf(msgBadTemplate, err), err)
	}

	req.config = cfg
	req.body = json.RawMessage(body)
	req.headers = s.requestHeaders(ctx, cfg, article.Journal.Code)

	return nil
}

// requestHeaders merges the configured JSON object over the JSON content type.
// Malformed configuration is logged and ignored.
func (s *QuotationService) requestHeaders(ctx context.Context, cfg *domain.QuotationConfiguration, journalCode string) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	if strings.TrimSpace(cfg.Headers) == "" {
		return headers
	}

	var custom map[string]any
	if err := json.Unmarshal([]byte(cfg.Headers), &custom); err != nil {
		s.log(ctx).WarnContext(ctx, "invalid api headers JSON, skipping custom headers",
			slog.String("journal_code", journalCode),
			slog.Any("error", err),
		)

		return headers
	}

	for name, value := range custom {
		if str, ok := value.(string); ok {
			headers.Set(name, str)
			continue
		}

		headers.Set(name, fmt.Sprint(value))
	}

	return headers
}

// callAPI stores the requested state and issues the outbound call.
func (s *QuotationService) callAPI(ctx context.Context, req *quotationRequest) error {
	q := req.quotation

	if q.Status == domain.StatusPending {
		if err := q.MarkRequested(s.clock.Now()); err != nil {
			return err
		}

		if err := s.quotations.Update(ctx, q); err != nil {
			return fmt.Errorf("storing requested quotation: %w", err)
		}

		s.publish(ctx, q)
	}

	s.log(ctx).InfoContext(ctx, "requesting fee quotation", slog.String("api_url", req.config.APIURL))

	start := time.Now()
	resp, err := s.api.RequestQuote(ctx, ports.QuoteRequest{
		URL:     req.config.APIURL,
		Body:    req.body,
		Headers: req.headers,
		Timeout: s.apiTimeout,
	})
	telemetry.ObserveQuotationAPI(time.Since(start).Seconds())

	switch {
	case err == nil:
		req.response = resp
		return nil
	case errors.Is(err, ports.ErrQuoteTimeout):
		return fail(msgTimeout, err)
	case errors.Is(err, ports.ErrQuoteMalformed):
		return fail(msgInvalidJSON, err)
	default:
		return fail(fmt.Sprintf(msgRequestFailed, err), err)
	}
}

// readResponse extracts the quote id, quotation URL and expiry.
func (s *QuotationService) readResponse(_ context.Context, req *quotationRequest) error {
	cfg := req.config
	data := req.response.Data

	field := cfg.QuoteIDField()

	quoteID, ok := render.LookupString(data, field)
	if !ok {
		return fail(fmt.Sprintf(msgMissingQuoteID, field, req.response.Raw), nil)
	}

	var quotationURL string

	if cfg.QuotationURLTemplate != "" {
		quotationURL = strings.TrimSpace(render.Render(cfg.QuotationURLTemplate, map[string]any{"quote_id": quoteID}))
		if quotationURL == "" {
			return fail(msgURLTemplate, nil)
		}
	} else {
		for _, name := range fallbackURLFields {
			if v, ok := render.LookupString(data, name); ok {
				quotationURL = v
				break
			}
		}

		if quotationURL == "" {
			return fail(msgNoQuotationURL, nil)
		}
	}

	req.quoteID = quoteID
	req.url = quotationURL
	req.expiresAt = s.expiry(data)

	return nil
}

// expiry prefers an RFC 3339 expires_at in the response over the default validity.
func (s *QuotationService) expiry(data any) *time.Time {
	if raw, ok := render.LookupString(data, expiresAtField); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}

	if s.defaultValidity > 0 {
		t := s.clock.Now().Add(s.defaultValidity)
		return &t
	}

	return nil
}

func (s *QuotationService) storePresented(ctx context.Context, req *quotationRequest) error {
	q := req.quotation

	if err := q.Present(req.quoteID, req.url, req.response.Raw, s.clock.Now()); err != nil {
		return err
	}

	q.ExpiresAt = req.expiresAt

	if err := s.quotations.Update(ctx, q); err != nil {
		return fmt.Errorf("storing presented quotation: %w", err)
	}

	s.publish(ctx, q)

	return nil
}

// VoidAll voids every active quotation of the article and returns how many
// were changed.
func (s *QuotationService) VoidAll(ctx context.Context, articleID int64, reason string) (int, error) {
	var voided []*domain.Quotation

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		active, err := s.quotations.List(ctx, ports.QuotationFilter{
			ArticleID: articleID,
			Statuses:  domain.ActiveStatuses,
		})
		if err != nil {
			return fmt.Errorf("listing active quotations: %w", err)
		}

		now := s.clock.Now()
		for _, q := range active {
			if err := q.Void(reason, now); err != nil {
				return err
			}

			if err := s.quotations.Update(ctx, q); err != nil {
				return fmt.Errorf("voiding quotation %d: %w", q.ID, err)
			}
		}

		voided = active

		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, q := range voided {
		s.log(ctx).InfoContext(ctx, "voided quotation",
			slog.Int64("quotation_id", q.ID),
			slog.Int64("article_id", articleID),
		)
		s.publish(ctx, q)
	}

	return len(voided), nil
}

// configFor returns nil without error for unconfigured journals.
func (s *QuotationService) configFor(ctx context.Context, journalID int64) (*domain.QuotationConfiguration, error) {
	cfg, err := s.configs.ConfigFor(ctx, journalID)
	if domain.IsNotFound(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	return cfg, nil
}

func requiredBy(cfg *domain.QuotationConfiguration, article *domain.Article) bool {
	return cfg != nil && cfg.IsEnabled && cfg.RequiresQuotationForSection(article.SectionID())
}

// IsRequired reports whether the article needs a quotation before submission.
func (s *QuotationService) IsRequired(ctx context.Context, article *domain.Article) (bool, error) {
	cfg, err := s.configFor(ctx, article.Journal.ID)
	if err != nil {
		return false, err
	}

	return requiredBy(cfg, article), nil
}

// CheckAccepted reports whether the submission may proceed: no quotation is
// required, acceptance is not required, or an accepted quotation exists.
func (s *QuotationService) CheckAccepted(ctx context.Context, article *domain.Article) (bool, error) {
	cfg, err := s.configFor(ctx, article.Journal.ID)
	if err != nil {
		return false, err
	}

	if !requiredBy(cfg, article) || !cfg.RequireAcceptance {
		return true, nil
	}

	accepted, err := s.quotations.List(ctx, ports.QuotationFilter{
		ArticleID: article.ID,
		Statuses:  []domain.QuotationStatus{domain.StatusAccepted},
		Limit:     1,
	})
	if err != nil {
		return false, fmt.Errorf("listing accepted quotations: %w", err)
	}

	return len(accepted) > 0, nil
}

// CheckStaleness returns the article's latest quotation. An active one
// created before the article was last modified is voided and nil returned.
func (s *QuotationService) CheckStaleness(ctx context.Context, article *domain.Article) (*domain.Quotation, error) {
	latest, err := s.quotations.List(ctx, ports.QuotationFilter{ArticleID: article.ID, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("loading latest quotation: %w", err)
	}

	if len(latest) == 0 {
		return nil, nil
	}

	q := latest[0]
	if !q.Status.IsActive() {
		return q, nil
	}

	modified := s.modifiedAt(ctx, article)
	if modified.IsZero() || !modified.After(q.CreatedAt) {
		return q, nil
	}

	s.log(ctx).InfoContext(ctx, "article modified after quotation was created",
		slog.Int64("article_id", article.ID),
		slog.Int64("quotation_id", q.ID),
		slog.Time("modified_at", modified),
		slog.Time("created_at", q.CreatedAt),
	)

	if _, err := s.VoidAll(ctx, article.ID, StaleReason); err != nil {
		return nil, err
	}

	return nil, nil
}

// modifiedAt prefers the host's comprehensive timestamp and degrades to the
// article's own last-modified time.
func (s *QuotationService) modifiedAt(ctx context.Context, article *domain.Article) time.Time {
	t, err := s.host.ArticleModifiedAt(ctx, article.ID)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "falling back to article last_modified",
			slog.Int64("article_id", article.ID),
			slog.Any("error", err),
		)

		return article.LastModified
	}

	return t
}

// StatusSnapshot is what the author's polling endpoint reports.
type StatusSnapshot struct {
	QuotationID  int64
	Status       domain.QuotationStatus
	IsAccepted   bool
	CanProceed   bool
	QuotationURL string
}

// Status returns the state of one of the author's quotations. Quotations of
// other authors are reported as not found.
func (s *QuotationService) Status(ctx context.Context, quotationID, authorID int64) (*StatusSnapshot, error) {
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	if q.AuthorID != authorID {
		return nil, domain.NewNotFoundError("quotation", strconv.FormatInt(quotationID, 10))
	}

	cfg, err := s.configFor(ctx, q.JournalID)
	if err != nil {
		return nil, err
	}

	return &StatusSnapshot{
		QuotationID:  q.ID,
		Status:       q.Status,
		IsAccepted:   q.IsAccepted(),
		CanProceed:   (cfg != nil && !cfg.RequireAcceptance) || q.IsAccepted(),
		QuotationURL: q.QuotationURL,
	}, nil
}

// Review is what the submission review page shows about fee quotation.
type Review struct {
	Enabled          bool
	Required         bool
	Accepted         bool
	Quotation        *domain.Quotation
	ButtonText       string
	InstructionsText string
}

// Review prepares the submission review panel for an article owned by
// authorID. Stale quotations are voided first.
func (s *QuotationService) Review(ctx context.Context, articleID, authorID int64) (*Review, error) {
	article, err := s.host.Article(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("loading article: %w", err)
	}

	if article.OwnerID != authorID {
		return nil, domain.NewNotFoundError("article", strconv.FormatInt(articleID, 10))
	}

	cfg, err := s.configFor(ctx, article.Journal.ID)
	if err != nil {
		return nil, err
	}

	if cfg == nil || !cfg.IsEnabled {
		return &Review{}, nil
	}

	review := &Review{
		Enabled:          true,
		ButtonText:       cfg.ButtonText,
		InstructionsText: cfg.InstructionsText,
	}

	if !cfg.RequiresQuotationForSection(article.SectionID()) {
		return review, nil
	}

	q, err := s.CheckStaleness(ctx, article)
	if err != nil {
		return nil, err
	}

	review.Required = true
	review.Quotation = q
	review.Accepted = q != nil && q.IsAccepted()

	return review, nil
}

// publish reports q's current state. Failures are logged only.
func (s *QuotationService) publish(ctx context.Context, q *domain.Quotation) {
	publishQuotationEvent(ctx, s.events, s.log(ctx), q)
}

func publishQuotationEvent(ctx context.Context, events ports.EventPublisher, logger *slog.Logger, q *domain.Quotation) {
	if events == nil {
		return
	}

	event := domain.NewQuotationEvent(uuid.NewString(), q)
	if err := events.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish quotation event",
			slog.Int64("quotation_id", q.ID),
			slog.String("event_type", event.EventType()),
			slog.Any("error", err),
		)
	}
}
