package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
	"github.com/jsamuelsen/fee-quotation-service/internal/render"
)

// DefaultPageSize is the quotation listing page size when none is requested.
const DefaultPageSize = 20

// MaxPageSize caps the quotation listing page size.
const MaxPageSize = 100

// secretBytes is the entropy of generated webhook secrets.
const secretBytes = 32

// ConfigurationInput holds the editable configuration fields. The webhook
// secret is not editable; it is generated and rotated by the service.
type ConfigurationInput struct {
	IsEnabled            bool
	APIURL               string
	RequestBodyTemplate  string
	ResponseQuoteIDField string
	QuotationURLTemplate string
	Headers              string
	RequireAcceptance    bool
	SectionMode          domain.SectionMode
	SelectedSections     []int64
	ButtonText           string
	InstructionsText     string
}

// Page requests one page of a newest-first listing. Cursor is the id of the
// last item of the previous page.
type Page struct {
	Cursor int64
	Limit  int
}

// QuotationPage is one page of quotations. NextCursor is zero on the last page.
type QuotationPage struct {
	Items      []*domain.Quotation
	NextCursor int64
}

// ConfigurationService backs the journal manager screens.
type ConfigurationService struct {
	configs    ports.ConfigurationRepository
	quotations ports.QuotationRepository
	host       ports.HostPlatform
	clock      ports.Clock
	random     io.Reader
	logger     *slog.Logger
}

// ConfigurationServiceConfig contains the dependencies of the configuration service.
type ConfigurationServiceConfig struct {
	Configurations ports.ConfigurationRepository
	Quotations     ports.QuotationRepository
	Host           ports.HostPlatform
	Clock          ports.Clock

	// Random sources webhook secrets; crypto/rand when nil.
	Random io.Reader

	Logger *slog.Logger
}

// NewConfigurationService creates a configuration service.
func NewConfigurationService(cfg ConfigurationServiceConfig) *ConfigurationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock
	}

	random := cfg.Random
	if random == nil {
		random = rand.Reader
	}

	return &ConfigurationService{
		configs:    cfg.Configurations,
		quotations: cfg.Quotations,
		host:       cfg.Host,
		clock:      clock,
		random:     random,
		logger:     logger.With(slog.String("component", "app.ConfigurationService")),
	}
}

// Get returns the journal's configuration, or unsaved defaults when the
// journal was never configured.
func (s *ConfigurationService) Get(ctx context.Context, journalCode string) (*domain.QuotationConfiguration, error) {
	journal, err := s.host.JournalByCode(ctx, journalCode)
	if err != nil {
		return nil, err
	}

	cfg, err := s.configs.ConfigFor(ctx, journal.ID)
	if domain.IsNotFound(err) {
		return domain.NewQuotationConfiguration(journal.ID), nil
	}

	return cfg, err
}

// Save validates in and stores it as the journal's configuration. A webhook
// secret is generated on first save.
func (s *ConfigurationService) Save(ctx context.Context, journalCode string, in ConfigurationInput) (*domain.QuotationConfiguration, error) {
	if err := validateConfiguration(&in); err != nil {
		return nil, err
	}

	journal, err := s.host.JournalByCode(ctx, journalCode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	cfg, err := s.configs.ConfigFor(ctx, journal.ID)
	if domain.IsNotFound(err) {
		cfg = domain.NewQuotationConfiguration(journal.ID)
		cfg.CreatedAt = now
	} else if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	cfg.IsEnabled = in.IsEnabled
	cfg.APIURL = in.APIURL
	cfg.RequestBodyTemplate = in.RequestBodyTemplate
	cfg.ResponseQuoteIDField = in.ResponseQuoteIDField
	cfg.QuotationURLTemplate = in.QuotationURLTemplate
	cfg.Headers = in.Headers
	cfg.RequireAcceptance = in.RequireAcceptance
	cfg.SectionMode = in.SectionMode
	cfg.SelectedSections = in.SelectedSections
	cfg.ButtonText = in.ButtonText
	cfg.InstructionsText = in.InstructionsText
	cfg.UpdatedAt = now

	if cfg.WebhookSecret == "" {
		if cfg.WebhookSecret, err = s.newSecret(); err != nil {
			return nil, err
		}
	}

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("saving configuration: %w", err)
	}

	s.logger.InfoContext(ctx, "saved fee quotation configuration",
		slog.String("journal_code", journalCode),
		slog.Bool("enabled", cfg.IsEnabled),
	)

	return cfg, nil
}

// RotateSecret replaces the webhook secret of a configured journal.
func (s *ConfigurationService) RotateSecret(ctx context.Context, journalCode string) (*domain.QuotationConfiguration, error) {
	journal, err := s.host.JournalByCode(ctx, journalCode)
	if err != nil {
		return nil, err
	}

	cfg, err := s.configs.ConfigFor(ctx, journal.ID)
	if err != nil {
		return nil, err
	}

	if cfg.WebhookSecret, err = s.newSecret(); err != nil {
		return nil, err
	}

	cfg.UpdatedAt = s.clock.Now()

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("saving configuration: %w", err)
	}

	s.logger.InfoContext(ctx, "rotated webhook secret", slog.String("journal_code", journalCode))

	return cfg, nil
}

// ListQuotations pages through the journal's quotations, newest first.
func (s *ConfigurationService) ListQuotations(ctx context.Context, journalCode string, page Page) (*QuotationPage, error) {
	journal, err := s.host.JournalByCode(ctx, journalCode)
	if err != nil {
		return nil, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	limit = min(limit, MaxPageSize)

	// One extra row tells whether another page follows.
	items, err := s.quotations.List(ctx, ports.QuotationFilter{
		JournalID: journal.ID,
		BeforeID:  page.Cursor,
		Limit:     limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("listing quotations: %w", err)
	}

	result := &QuotationPage{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}

	return result, nil
}

// QuotationDetail returns a quotation belonging to the journal.
func (s *ConfigurationService) QuotationDetail(ctx context.Context, journalCode string, quotationID int64) (*domain.Quotation, error) {
	journal, err := s.host.JournalByCode(ctx, journalCode)
	if err != nil {
		return nil, err
	}

	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	if q.JournalID != journal.ID {
		return nil, domain.NewNotFoundError("quotation", strconv.FormatInt(quotationID, 10))
	}

	return q, nil
}

// DeleteArticleQuotations removes all quotations of a deleted article.
func (s *ConfigurationService) DeleteArticleQuotations(ctx context.Context, articleID int64) (int64, error) {
	n, err := s.quotations.DeleteByArticle(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("deleting quotations: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted article quotations",
		slog.Int64("article_id", articleID),
		slog.Int64("count", n),
	)

	return n, nil
}

// newSecret returns a URL-safe token of secretBytes random bytes.
func (s *ConfigurationService) newSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("generating webhook secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// validateConfiguration checks in and fills defaults for empty optional fields.
func validateConfiguration(in *ConfigurationInput) error {
	in.APIURL = strings.TrimSpace(in.APIURL)
	if in.APIURL != "" {
		u, err := url.Parse(in.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return domain.NewValidationError("api_url", "must be an absolute http or https URL")
		}
	}

	if strings.TrimSpace(in.RequestBodyTemplate) == "" {
		in.RequestBodyTemplate = domain.DefaultRequestBodyTemplate
	}

	if err := render.Validate(in.RequestBodyTemplate); err != nil {
		return domain.NewValidationError("request_body_template",
			fmt.Sprintf("invalid JSON template: %v; ensure the template is valid JSON with placeholders", err))
	}

	if strings.TrimSpace(in.Headers) != "" {
		var headers map[string]any
		if err := json.Unmarshal([]byte(in.Headers), &headers); err != nil || headers == nil {
			return domain.NewValidationError("headers", "must be a JSON object")
		}
	}

	if in.SectionMode == "" {
		in.SectionMode = domain.SectionModeAll
	}

	if !in.SectionMode.Valid() {
		return domain.NewValidationError("section_mode", "must be one of all, include, exclude")
	}

	if strings.TrimSpace(in.ResponseQuoteIDField) == "" {
		in.ResponseQuoteIDField = domain.DefaultQuoteIDField
	}

	if strings.TrimSpace(in.ButtonText) == "" {
		in.ButtonText = domain.DefaultButtonText
	}

	return nil
}
