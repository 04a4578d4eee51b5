// Package payload assembles the values a journal's request body template is
// rendered with.
package payload

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

// Identifier types emitted in author and institution identifier lists.
const (
	IdentifierOther    = "OTHER"
	IdentifierORCID    = "ORCID"
	IdentifierROR      = "ROR"
	IdentifierRinggold = "RINGGOLD"
)

// Identifier is a typed external identifier.
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Address mirrors the billing service's address shape. Only city and country
// are known upstream; the remaining fields are always empty.
type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	Address3 string `json:"address3"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Fax      string `json:"fax"`
	Phone    string `json:"phone"`
	PhoneExt string `json:"phoneExt"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

// Author is one entry of the "authors" placeholder.
type Author struct {
	Address                Address      `json:"address"`
	AuthorIdentifiers      []Identifier `json:"authorIdentifiers"`
	DepartmentName         string       `json:"departmentName"`
	EmailAddress           string       `json:"emailAddress"`
	FirstName              string       `json:"firstName"`
	InstitutionIdentifiers []Identifier `json:"institutionIdentifiers"`
	InstitutionName        string       `json:"institutionName"`
	LastName               string       `json:"lastName"`
	MiddleName             string       `json:"middleName"`
	Primary                string       `json:"primary"`
	Salutation             string       `json:"salutation"`
	Suffix                 string       `json:"suffix"`
}

// Input is what a single quotation request is built from.
type Input struct {
	Article     *domain.Article
	Account     *domain.Account
	CallbackURL string
}

// Builder produces template contexts. The directory is optional.
type Builder struct {
	directory ports.InstitutionDirectory
}

// NewBuilder returns a Builder. directory may be nil.
func NewBuilder(directory ports.InstitutionDirectory) *Builder {
	return &Builder{directory: directory}
}

// Build returns the placeholder values for in.
func (b *Builder) Build(ctx context.Context, in Input) map[string]any {
	article := in.Article

	var sectionName, sectionID string
	if article.Section != nil {
		sectionName = article.Section.Name
		sectionID = strconv.FormatInt(article.Section.ID, 10)
	}

	return map[string]any{
		"article_id":    article.ID,
		"article_title": article.Title,
		"author_email":  in.Account.Email,
		"author_name":   in.Account.FullName,
		"authors":       b.Authors(ctx, article),
		"journal_code":  article.Journal.Code,
		"journal_name":  article.Journal.Name,
		"section_name":  sectionName,
		"section_id":    sectionID,
		"callback_url":  in.CallbackURL,
	}
}

// Authors returns the article's authors ordered by (order, id) with exactly
// one marked primary.
func (b *Builder) Authors(ctx context.Context, article *domain.Article) []Author {
	frozen := slices.Clone(article.Authors)
	slices.SortStableFunc(frozen, func(x, y domain.Author) int {
		return cmp.Or(cmp.Compare(x.Order, y.Order), cmp.Compare(x.ID, y.ID))
	})

	primary := primaryIndex(frozen, article.CorrespondenceAccountID)

	out := make([]Author, 0, len(frozen))
	for i, a := range frozen {
		out = append(out, Author{
			Address: Address{
				City:    a.City,
				Country: strings.ToLower(a.CountryCode),
			},
			AuthorIdentifiers:      authorIdentifiers(a),
			DepartmentName:         a.Department,
			EmailAddress:           a.Email,
			FirstName:              a.FirstName,
			InstitutionIdentifiers: b.institutionIdentifiers(ctx, a),
			InstitutionName:        a.OrganizationName,
			LastName:               a.LastName,
			MiddleName:             a.MiddleName,
			Primary:                strconv.FormatBool(i == primary),
			Salutation:             a.Salutation,
			Suffix:                 a.Suffix,
		})
	}

	return out
}

// primaryIndex picks the correspondence author when one is designated,
// otherwise the author ranked first. -1 when neither is present.
func primaryIndex(authors []domain.Author, correspondenceAccountID int64) int {
	if correspondenceAccountID != 0 {
		return slices.IndexFunc(authors, func(a domain.Author) bool {
			return a.AccountID == correspondenceAccountID
		})
	}

	return slices.IndexFunc(authors, func(a domain.Author) bool { return a.Order == 1 })
}

func authorIdentifiers(a domain.Author) []Identifier {
	ids := []Identifier{{Type: IdentifierOther, Value: strconv.FormatInt(a.ID, 10)}}
	if a.ORCID != "" {
		ids = append(ids, Identifier{Type: IdentifierORCID, Value: a.ORCID})
	}

	return ids
}

func (b *Builder) institutionIdentifiers(ctx context.Context, a domain.Author) []Identifier {
	ids := make([]Identifier, 0, 2)
	if a.ROR != "" {
		ids = append(ids, Identifier{Type: IdentifierROR, Value: a.ROR})
	}

	if b.directory != nil && a.OrganizationID != 0 {
		if ringgold, ok := b.directory.RinggoldID(ctx, a.OrganizationID); ok && ringgold != "" {
			ids = append(ids, Identifier{Type: IdentifierRinggold, Value: ringgold})
		}
	}

	return ids
}
