package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

const quotationColumns = `id, article_id, journal_id, author_id, status, external_quote_id,
	quotation_url, api_response, webhook_payload, webhook_received_at, error_message,
	created_at, updated_at, expires_at`

type quotationRow struct {
	ID                int64        `db:"id"`
	ArticleID         int64        `db:"article_id"`
	JournalID         int64        `db:"journal_id"`
	AuthorID          int64        `db:"author_id"`
	Status            string       `db:"status"`
	ExternalQuoteID   string       `db:"external_quote_id"`
	QuotationURL      string       `db:"quotation_url"`
	APIResponse       []byte       `db:"api_response"`
	WebhookPayload    []byte       `db:"webhook_payload"`
	WebhookReceivedAt sql.NullTime `db:"webhook_received_at"`
	ErrorMessage      string       `db:"error_message"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
	ExpiresAt         sql.NullTime `db:"expires_at"`
}

func (r *quotationRow) toDomain() *domain.Quotation {
	q := &domain.Quotation{
		ID:              r.ID,
		ArticleID:       r.ArticleID,
		JournalID:       r.JournalID,
		AuthorID:        r.AuthorID,
		Status:          domain.QuotationStatus(r.Status),
		ExternalQuoteID: r.ExternalQuoteID,
		QuotationURL:    r.QuotationURL,
		ErrorMessage:    r.ErrorMessage,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}

	if len(r.APIResponse) > 0 {
		q.APIResponse = r.APIResponse
	}

	if len(r.WebhookPayload) > 0 {
		q.WebhookPayload = r.WebhookPayload
	}

	if r.WebhookReceivedAt.Valid {
		t := r.WebhookReceivedAt.Time.UTC()
		q.WebhookReceivedAt = &t
	}

	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time.UTC()
		q.ExpiresAt = &t
	}

	return q
}

// QuotationStore implements ports.QuotationRepository.
type QuotationStore struct {
	db *sqlx.DB
}

// NewQuotationStore returns a store backed by db.
func NewQuotationStore(db *sqlx.DB) *QuotationStore {
	return &QuotationStore{db: db}
}

var _ ports.QuotationRepository = (*QuotationStore)(nil)

// Create inserts q and sets q.ID.
func (s *QuotationStore) Create(ctx context.Context, q *domain.Quotation) error {
	ex := executor(ctx, s.db)

	query := ex.Rebind(`
		INSERT INTO fee_quotations (
			article_id, journal_id, author_id, status, external_quote_id, quotation_url,
			api_response, webhook_payload, webhook_received_at, error_message,
			created_at, updated_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := sqlx.GetContext(ctx, ex, &q.ID, query,
		q.ArticleID,
		q.JournalID,
		q.AuthorID,
		string(q.Status),
		q.ExternalQuoteID,
		q.QuotationURL,
		jsonArg(q.APIResponse),
		jsonArg(q.WebhookPayload),
		timeArg(q.WebhookReceivedAt),
		q.ErrorMessage,
		q.CreatedAt.UTC(),
		q.UpdatedAt.UTC(),
		timeArg(q.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("insert quotation: %w", err)
	}

	return nil
}

// Update writes every mutable column of q.
func (s *QuotationStore) Update(ctx context.Context, q *domain.Quotation) error {
	ex := executor(ctx, s.db)

	query := ex.Rebind(`
		UPDATE fee_quotations SET
			status = ?, external_quote_id = ?, quotation_url = ?, api_response = ?,
			webhook_payload = ?, webhook_received_at = ?, error_message = ?,
			updated_at = ?, expires_at = ?
		WHERE id = ?`)

	res, err := ex.ExecContext(ctx, query,
		string(q.Status),
		q.ExternalQuoteID,
		q.QuotationURL,
		jsonArg(q.APIResponse),
		jsonArg(q.WebhookPayload),
		timeArg(q.WebhookReceivedAt),
		q.ErrorMessage,
		q.UpdatedAt.UTC(),
		timeArg(q.ExpiresAt),
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("update quotation %d: %w", q.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update quotation %d: %w", q.ID, err)
	}

	if n == 0 {
		return domain.NewNotFoundError("quotation", strconv.FormatInt(q.ID, 10))
	}

	return nil
}

// Get loads one quotation by id.
func (s *QuotationStore) Get(ctx context.Context, id int64) (*domain.Quotation, error) {
	ex := executor(ctx, s.db)

	var row quotationRow

	err := sqlx.GetContext(ctx, ex, &row,
		ex.Rebind(`SELECT `+quotationColumns+` FROM fee_quotations WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("quotation", strconv.FormatInt(id, 10))
	}

	if err != nil {
		return nil, fmt.Errorf("get quotation %d: %w", id, err)
	}

	return row.toDomain(), nil
}

// List returns quotations matching filter ordered newest first.
func (s *QuotationStore) List(ctx context.Context, filter ports.QuotationFilter) ([]*domain.Quotation, error) {
	ex := executor(ctx, s.db)

	var (
		where []string
		args  []any
	)

	if filter.ArticleID != 0 {
		where = append(where, "article_id = ?")
		args = append(args, filter.ArticleID)
	}

	if filter.AuthorID != 0 {
		where = append(where, "author_id = ?")
		args = append(args, filter.AuthorID)
	}

	if filter.JournalID != 0 {
		where = append(where, "journal_id = ?")
		args = append(args, filter.JournalID)
	}

	if filter.ExternalQuoteID != "" {
		where = append(where, "external_quote_id = ?")
		args = append(args, filter.ExternalQuoteID)
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}

		where = append(where, "status IN (?)")
		args = append(args, statuses)
	}

	if filter.BeforeID != 0 {
		where = append(where, "id < ?")
		args = append(args, filter.BeforeID)
	}

	query := `SELECT ` + quotationColumns + ` FROM fee_quotations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build quotation query: %w", err)
	}

	var rows []quotationRow
	if err := sqlx.SelectContext(ctx, ex, &rows, ex.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}

	out := make([]*domain.Quotation, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}

	return out, nil
}

// DeleteByArticle removes every quotation for the article.
func (s *QuotationStore) DeleteByArticle(ctx context.Context, articleID int64) (int64, error) {
	ex := executor(ctx, s.db)

	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM fee_quotations WHERE article_id = ?`), articleID)
	if err != nil {
		return 0, fmt.Errorf("delete quotations for article %d: %w", articleID, err)
	}

	return res.RowsAffected()
}

// jsonArg stores empty payloads as NULL.
func jsonArg(b []byte) any {
	if len(b) == 0 {
		return nil
	}

	return string(b)
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}

	return t.UTC()
}
