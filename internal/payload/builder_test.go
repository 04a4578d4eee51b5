package payload

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/mocks"
	"github.com/jsamuelsen/fee-quotation-service/internal/render"
)

func testArticle() *domain.Article {
	return &domain.Article{
		ID:      101,
		Title:   "Open Access Economics",
		Journal: domain.Journal{ID: 1, Code: "oae", Name: "Open Access Economics Journal"},
		Section: &domain.Section{ID: 3, Name: "Research Articles"},
		Authors: []domain.Author{
			{
				ID: 12, Order: 2, AccountID: 900, FirstName: "Grace", LastName: "Hopper",
				Email: "grace@example.org", CountryCode: "US", City: "Arlington",
				OrganizationID: 55, OrganizationName: "Navy Lab", ROR: "https://ror.org/0abc",
			},
			{
				ID: 11, Order: 1, AccountID: 901, Salutation: "Dr", FirstName: "Ada", MiddleName: "K",
				LastName: "Lovelace", Suffix: "PhD", Email: "ada@example.org", ORCID: "0000-0001",
				Department: "Mathematics", CountryCode: "GB", City: "London",
			},
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	directory := mocks.NewMockInstitutionDirectory(t)
	directory.EXPECT().RinggoldID(mock.Anything, int64(55)).Return("1234", true)

	b := NewBuilder(directory)
	values := b.Build(context.Background(), Input{
		Article:     testArticle(),
		Account:     &domain.Account{ID: 900, Email: "grace@example.org", FullName: "Grace Hopper"},
		CallbackURL: "https://journal.example/webhook/oae/",
	})

	assert.Equal(t, int64(101), values["article_id"])
	assert.Equal(t, "Open Access Economics", values["article_title"])
	assert.Equal(t, "grace@example.org", values["author_email"])
	assert.Equal(t, "Grace Hopper", values["author_name"])
	assert.Equal(t, "oae", values["journal_code"])
	assert.Equal(t, "Open Access Economics Journal", values["journal_name"])
	assert.Equal(t, "Research Articles", values["section_name"])
	assert.Equal(t, "3", values["section_id"])
	assert.Equal(t, "https://journal.example/webhook/oae/", values["callback_url"])

	for _, name := range render.Vocabulary {
		assert.Contains(t, values, name)
	}
}

func TestBuilder_NoSection(t *testing.T) {
	article := testArticle()
	article.Section = nil

	values := NewBuilder(nil).Build(context.Background(), Input{
		Article: article,
		Account: &domain.Account{},
	})

	assert.Equal(t, "", values["section_name"])
	assert.Equal(t, "", values["section_id"])
}

func TestBuilder_Authors(t *testing.T) {
	directory := mocks.NewMockInstitutionDirectory(t)
	directory.EXPECT().RinggoldID(mock.Anything, int64(55)).Return("", false)

	authors := NewBuilder(directory).Authors(context.Background(), testArticle())

	require.Len(t, authors, 2)

	first := authors[0]
	assert.Equal(t, "Ada", first.FirstName)
	assert.Equal(t, "true", first.Primary, "order 1 is primary without a correspondence author")
	assert.Equal(t, "gb", first.Address.Country)
	assert.Equal(t, "London", first.Address.City)
	assert.Empty(t, first.Address.Address1)
	assert.Equal(t, []Identifier{{Type: "OTHER", Value: "11"}, {Type: "ORCID", Value: "0000-0001"}}, first.AuthorIdentifiers)
	assert.Empty(t, first.InstitutionIdentifiers)
	assert.Equal(t, "Dr", first.Salutation)
	assert.Equal(t, "PhD", first.Suffix)
	assert.Equal(t, "Mathematics", first.DepartmentName)

	second := authors[1]
	assert.Equal(t, "false", second.Primary)
	assert.Equal(t, []Identifier{{Type: "ROR", Value: "https://ror.org/0abc"}}, second.InstitutionIdentifiers)
	assert.Equal(t, "Navy Lab", second.InstitutionName)
}

func TestBuilder_PrimaryFollowsCorrespondenceAuthor(t *testing.T) {
	article := testArticle()
	article.CorrespondenceAccountID = 900

	authors := NewBuilder(nil).Authors(context.Background(), article)

	primaries := 0
	for _, a := range authors {
		if a.Primary == "true" {
			primaries++
			assert.Equal(t, "Grace", a.FirstName)
		}
	}

	assert.Equal(t, 1, primaries)
}

func TestBuilder_RinggoldIncluded(t *testing.T) {
	directory := mocks.NewMockInstitutionDirectory(t)
	directory.EXPECT().RinggoldID(mock.Anything, int64(55)).Return("1234", true)

	authors := NewBuilder(directory).Authors(context.Background(), testArticle())

	assert.Equal(t, []Identifier{
		{Type: "ROR", Value: "https://ror.org/0abc"},
		{Type: "RINGGOLD", Value: "1234"},
	}, authors[1].InstitutionIdentifiers)
}

func TestBuilder_RendersIntoDefaultTemplate(t *testing.T) {
	values := NewBuilder(nil).Build(context.Background(), Input{
		Article:     testArticle(),
		Account:     &domain.Account{Email: "grace@example.org", FullName: "Grace Hopper"},
		CallbackURL: "https://journal.example/webhook/oae/",
	})

	body := render.Render(domain.DefaultRequestBodyTemplate, values)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, "101", decoded["article_id"])

	authors, ok := decoded["authors"].([]any)
	require.True(t, ok)
	require.Len(t, authors, 2)

	address := authors[0].(map[string]any)["address"].(map[string]any)
	assert.Equal(t, "gb", address["country"])
	assert.Contains(t, address, "phoneExt")
}
