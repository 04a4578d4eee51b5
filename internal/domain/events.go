package domain

import "time"

// QuotationEvent is published whenever a quotation changes state.
type QuotationEvent struct {
	ID              string          `json:"id"`
	QuotationID     int64           `json:"quotation_id"`
	ArticleID       int64           `json:"article_id"`
	JournalID       int64           `json:"journal_id"`
	AuthorID        int64           `json:"author_id"`
	Status          QuotationStatus `json:"status"`
	ExternalQuoteID string          `json:"external_quote_id,omitempty"`
	QuotationURL    string          `json:"quotation_url,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// EventType returns the routing key suffix, e.g. "quotation.presented".
func (e QuotationEvent) EventType() string {
	return "quotation." + string(e.Status)
}

// Payload returns the event itself for serialization.
func (e QuotationEvent) Payload() any {
	return e
}

// NewQuotationEvent snapshots q for publication.
func NewQuotationEvent(id string, q *Quotation) QuotationEvent {
	return QuotationEvent{
		ID:              id,
		QuotationID:     q.ID,
		ArticleID:       q.ArticleID,
		JournalID:       q.JournalID,
		AuthorID:        q.AuthorID,
		Status:          q.Status,
		ExternalQuoteID: q.ExternalQuoteID,
		QuotationURL:    q.QuotationURL,
		Reason:          q.ErrorMessage,
		OccurredAt:      q.UpdatedAt,
	}
}
