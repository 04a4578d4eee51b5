package acl

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/clients"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

const hostServiceName = "host-platform"

// HostClient reads journals, articles and accounts from the submission
// platform's JSON API.
type HostClient struct {
	BaseAdapter
}

// Compile-time interface checks.
var (
	_ ports.HostPlatform         = (*HostClient)(nil)
	_ ports.InstitutionDirectory = (*HostClient)(nil)
	_ ports.HealthChecker        = (*HostClient)(nil)
)

// NewHostClient creates a host platform adapter.
func NewHostClient(client *clients.Client) *HostClient {
	return &HostClient{BaseAdapter: NewBaseAdapter(client, hostServiceName)}
}

type journalDTO struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type sectionDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type authorDTO struct {
	ID               int64  `json:"id"`
	Order            int    `json:"order"`
	AccountID        int64  `json:"account_id"`
	Salutation       string `json:"salutation"`
	FirstName        string `json:"first_name"`
	MiddleName       string `json:"middle_name"`
	LastName         string `json:"last_name"`
	Suffix           string `json:"suffix"`
	Email            string `json:"email"`
	Department       string `json:"department"`
	ORCID            string `json:"orcid"`
	ROR              string `json:"ror"`
	OrganizationID   int64  `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	CountryCode      string `json:"country_code"`
	City             string `json:"city"`
}

type articleDTO struct {
	ID                      int64       `json:"id"`
	Title                   string      `json:"title"`
	Journal                 journalDTO  `json:"journal"`
	Section                 *sectionDTO `json:"section"`
	OwnerID                 int64       `json:"owner_id"`
	CorrespondenceAccountID int64       `json:"correspondence_author_id"`
	Authors                 []authorDTO `json:"frozen_authors"`
	LastModified            time.Time   `json:"last_modified"`
}

type accountDTO struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type modifiedDTO struct {
	ModifiedAt time.Time `json:"modified_at"`
}

type ringgoldDTO struct {
	RinggoldID string `json:"ringgold_id"`
}

// JournalByCode looks a journal up by its URL code.
func (c *HostClient) JournalByCode(ctx context.Context, code string) (*domain.Journal, error) {
	if err := ValidateRequired(code, "journal_code"); err != nil {
		return nil, err
	}

	body, err := c.Get(ctx, "/api/journals/by-code/"+url.PathEscape(code), "get journal", code)
	if err != nil {
		return nil, err
	}

	dto, err := DecodeResponseForService[journalDTO](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	return translateJournal(dto)
}

// Article returns the article with its frozen authors.
func (c *HostClient) Article(ctx context.Context, id int64) (*domain.Article, error) {
	key := strconv.FormatInt(id, 10)

	body, err := c.Get(ctx, "/api/articles/"+key, "get article", key)
	if err != nil {
		return nil, err
	}

	dto, err := DecodeResponseForService[articleDTO](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	return translateArticle(dto)
}

// Account returns a user account.
func (c *HostClient) Account(ctx context.Context, id int64) (*domain.Account, error) {
	key := strconv.FormatInt(id, 10)

	body, err := c.Get(ctx, "/api/accounts/"+key, "get account", key)
	if err != nil {
		return nil, err
	}

	dto, err := DecodeResponseForService[accountDTO](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	if err := ValidatePositive(dto.ID, "account.id"); err != nil {
		return nil, err
	}

	return &domain.Account{ID: dto.ID, Email: dto.Email, FullName: dto.FullName}, nil
}

// ArticleModifiedAt returns the latest change to the article or its attachments.
func (c *HostClient) ArticleModifiedAt(ctx context.Context, id int64) (time.Time, error) {
	key := strconv.FormatInt(id, 10)

	body, err := c.Get(ctx, "/api/articles/"+key+"/modified", "get article modification", key)
	if err != nil {
		return time.Time{}, err
	}

	dto, err := DecodeResponseForService[modifiedDTO](body, c.ServiceName())
	if err != nil {
		return time.Time{}, err
	}

	return dto.ModifiedAt, nil
}

// RinggoldID returns the organization's Ringgold identifier. Lookup failures
// are reported as unknown.
func (c *HostClient) RinggoldID(ctx context.Context, organizationID int64) (string, bool) {
	key := strconv.FormatInt(organizationID, 10)

	body, err := c.Get(ctx, "/api/organizations/"+key+"/ringgold", "get ringgold id", key)
	if err != nil {
		return "", false
	}

	dto, err := DecodeResponse[ringgoldDTO](body)
	if err != nil || dto.RinggoldID == "" {
		return "", false
	}

	return dto.RinggoldID, true
}

// Name implements ports.HealthChecker.
func (c *HostClient) Name() string {
	return hostServiceName
}

// Check implements ports.HealthChecker.
func (c *HostClient) Check(ctx context.Context) error {
	body, err := c.Get(ctx, "/api/health", "health check", "")
	if err != nil {
		return err
	}

	return body.Close()
}

func translateJournal(dto *journalDTO) (*domain.Journal, error) {
	if err := ValidatePositive(dto.ID, "journal.id"); err != nil {
		return nil, err
	}

	if err := ValidateRequired(dto.Code, "journal.code"); err != nil {
		return nil, err
	}

	return &domain.Journal{ID: dto.ID, Code: dto.Code, Name: dto.Name}, nil
}

func translateAuthor(dto *authorDTO) (*domain.Author, error) {
	if err := ValidatePositive(dto.ID, "author.id"); err != nil {
		return nil, err
	}

	a := domain.Author(*dto)

	return &a, nil
}

func translateArticle(dto *articleDTO) (*domain.Article, error) {
	if err := ValidatePositive(dto.ID, "article.id"); err != nil {
		return nil, err
	}

	journal, err := translateJournal(&dto.Journal)
	if err != nil {
		return nil, err
	}

	authors, err := TranslateSlice(dto.Authors, translateAuthor)
	if err != nil {
		return nil, fmt.Errorf("article %d: %w", dto.ID, err)
	}

	article := &domain.Article{
		ID:                      dto.ID,
		Title:                   dto.Title,
		Journal:                 *journal,
		OwnerID:                 dto.OwnerID,
		CorrespondenceAccountID: dto.CorrespondenceAccountID,
		Authors:                 make([]domain.Author, 0, len(authors)),
		LastModified:            dto.LastModified,
	}

	if dto.Section != nil {
		article.Section = &domain.Section{ID: dto.Section.ID, Name: dto.Section.Name}
	}

	for _, a := range authors {
		article.Authors = append(article.Authors, *a)
	}

	return article, nil
}
