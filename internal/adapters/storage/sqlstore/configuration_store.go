package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

type configurationRow struct {
	JournalID            int64     `db:"journal_id"`
	IsEnabled            bool      `db:"is_enabled"`
	APIURL               string    `db:"api_url"`
	RequestBodyTemplate  string    `db:"request_body_template"`
	ResponseQuoteIDField string    `db:"response_quote_id_field"`
	QuotationURLTemplate string    `db:"quotation_url_template"`
	APIHeaders           string    `db:"api_headers"`
	WebhookSecret        string    `db:"webhook_secret"`
	RequireAcceptance    bool      `db:"require_acceptance"`
	SectionMode          string    `db:"section_mode"`
	SelectedSections     string    `db:"selected_sections"`
	ButtonText           string    `db:"button_text"`
	InstructionsText     string    `db:"instructions_text"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r *configurationRow) toDomain() (*domain.QuotationConfiguration, error) {
	cfg := &domain.QuotationConfiguration{
		JournalID:            r.JournalID,
		IsEnabled:            r.IsEnabled,
		APIURL:               r.APIURL,
		RequestBodyTemplate:  r.RequestBodyTemplate,
		ResponseQuoteIDField: r.ResponseQuoteIDField,
		QuotationURLTemplate: r.QuotationURLTemplate,
		Headers:              r.APIHeaders,
		WebhookSecret:        r.WebhookSecret,
		RequireAcceptance:    r.RequireAcceptance,
		SectionMode:          domain.SectionMode(r.SectionMode),
		ButtonText:           r.ButtonText,
		InstructionsText:     r.InstructionsText,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}

	if r.SelectedSections != "" {
		if err := json.Unmarshal([]byte(r.SelectedSections), &cfg.SelectedSections); err != nil {
			return nil, fmt.Errorf("decode selected sections for journal %d: %w", r.JournalID, err)
		}
	}

	return cfg, nil
}

// ConfigurationStore implements ports.ConfigurationRepository.
type ConfigurationStore struct {
	db *sqlx.DB
}

// NewConfigurationStore returns a store backed by db.
func NewConfigurationStore(db *sqlx.DB) *ConfigurationStore {
	return &ConfigurationStore{db: db}
}

var _ ports.ConfigurationRepository = (*ConfigurationStore)(nil)

// ConfigFor returns domain.ErrNotFound when the journal was never configured.
func (s *ConfigurationStore) ConfigFor(ctx context.Context, journalID int64) (*domain.QuotationConfiguration, error) {
	ex := executor(ctx, s.db)

	var row configurationRow

	err := sqlx.GetContext(ctx, ex, &row, ex.Rebind(`
		SELECT journal_id, is_enabled, api_url, request_body_template, response_quote_id_field,
			quotation_url_template, api_headers, webhook_secret, require_acceptance,
			section_mode, selected_sections, button_text, instructions_text,
			created_at, updated_at
		FROM fee_quotation_configurations
		WHERE journal_id = ?`), journalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("configuration", strconv.FormatInt(journalID, 10))
	}

	if err != nil {
		return nil, fmt.Errorf("get configuration for journal %d: %w", journalID, err)
	}

	return row.toDomain()
}

// Save upserts cfg. created_at is kept from the first insert.
func (s *ConfigurationStore) Save(ctx context.Context, cfg *domain.QuotationConfiguration) error {
	ex := executor(ctx, s.db)

	sections := cfg.SelectedSections
	if sections == nil {
		sections = []int64{}
	}

	encoded, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("encode selected sections: %w", err)
	}

	_, err = ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO fee_quotation_configurations (
			journal_id, is_enabled, api_url, request_body_template, response_quote_id_field,
			quotation_url_template, api_headers, webhook_secret, require_acceptance,
			section_mode, selected_sections, button_text, instructions_text,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (journal_id) DO UPDATE SET
			is_enabled = excluded.is_enabled,
			api_url = excluded.api_url,
			request_body_template = excluded.request_body_template,
			response_quote_id_field = excluded.response_quote_id_field,
			quotation_url_template = excluded.quotation_url_template,
			api_headers = excluded.api_headers,
			webhook_secret = excluded.webhook_secret,
			require_acceptance = excluded.require_acceptance,
			section_mode = excluded.section_mode,
			selected_sections = excluded.selected_sections,
			button_text = excluded.button_text,
			instructions_text = excluded.instructions_text,
			updated_at = excluded.updated_at`),
		cfg.JournalID,
		cfg.IsEnabled,
		cfg.APIURL,
		cfg.RequestBodyTemplate,
		cfg.ResponseQuoteIDField,
		cfg.QuotationURLTemplate,
		cfg.Headers,
		cfg.WebhookSecret,
		cfg.RequireAcceptance,
		string(cfg.SectionMode),
		string(encoded),
		cfg.ButtonText,
		cfg.InstructionsText,
		cfg.CreatedAt.UTC(),
		cfg.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save configuration for journal %d: %w", cfg.JournalID, err)
	}

	return nil
}
