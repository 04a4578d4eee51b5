package domain

import (
	"slices"
	"time"
)

// SectionMode selects which sections of a journal require a fee quotation.
type SectionMode string

// Section modes.
const (
	SectionModeAll     SectionMode = "all"
	SectionModeInclude SectionMode = "include"
	SectionModeExclude SectionMode = "exclude"
)

// Valid reports whether m is a known mode.
func (m SectionMode) Valid() bool {
	return m == SectionModeAll || m == SectionModeInclude || m == SectionModeExclude
}

// Configuration defaults applied to journals without a stored configuration.
const (
	DefaultQuoteIDField     = "quote_id"
	DefaultButtonText       = "View Fee Quotation"
	DefaultInstructionsText = "Please review the publication fee quotation for your article before completing your submission."

	DefaultRequestBodyTemplate = `{
  "article_id": "{{article_id}}",
  "article_title": "{{article_title}}",
  "author_email": "{{author_email}}",
  "author_name": "{{author_name}}",
  "authors": "{{authors}}",
  "journal_code": "{{journal_code}}",
  "journal_name": "{{journal_name}}",
  "section_name": "{{section_name}}",
  "section_id": "{{section_id}}",
  "callback_url": "{{callback_url}}"
}`
)

// QuotationConfiguration is the per-journal integration setup.
type QuotationConfiguration struct {
	JournalID int64

	IsEnabled            bool
	APIURL               string
	RequestBodyTemplate  string
	ResponseQuoteIDField string
	QuotationURLTemplate string

	// Headers is a JSON object of extra request headers, kept as entered.
	Headers string

	WebhookSecret     string
	RequireAcceptance bool

	SectionMode      SectionMode
	SelectedSections []int64

	ButtonText       string
	InstructionsText string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewQuotationConfiguration returns the defaults for an unconfigured journal.
func NewQuotationConfiguration(journalID int64) *QuotationConfiguration {
	return &QuotationConfiguration{
		JournalID:            journalID,
		RequestBodyTemplate:  DefaultRequestBodyTemplate,
		ResponseQuoteIDField: DefaultQuoteIDField,
		RequireAcceptance:    true,
		SectionMode:          SectionModeAll,
		ButtonText:           DefaultButtonText,
		InstructionsText:     DefaultInstructionsText,
	}
}

// RequiresQuotationForSection reports whether an article in the given
// section needs a quotation. A nil section only qualifies under SectionModeAll.
func (c *QuotationConfiguration) RequiresQuotationForSection(sectionID *int64) bool {
	switch c.SectionMode {
	case SectionModeAll, "":
		return true
	case SectionModeInclude:
		return sectionID != nil && slices.Contains(c.SelectedSections, *sectionID)
	case SectionModeExclude:
		return sectionID != nil && !slices.Contains(c.SelectedSections, *sectionID)
	default:
		return false
	}
}

// QuoteIDField returns the configured dot path, falling back to the default.
func (c *QuotationConfiguration) QuoteIDField() string {
	if c.ResponseQuoteIDField == "" {
		return DefaultQuoteIDField
	}

	return c.ResponseQuoteIDField
}
