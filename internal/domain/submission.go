package domain

import "time"

// The types below are read-only views of host platform records.

// Journal identifies the publication a configuration belongs to.
type Journal struct {
	ID   int64
	Code string
	Name string
}

// Section is a journal section an article is submitted to.
type Section struct {
	ID   int64
	Name string
}

// Account is the signed-in user requesting a quotation.
type Account struct {
	ID       int64
	Email    string
	FullName string
}

// Author is an author record frozen on the article at submission time.
type Author struct {
	ID    int64
	Order int

	// AccountID links the frozen record to a host account, zero when unlinked.
	AccountID int64

	Salutation string
	FirstName  string
	MiddleName string
	LastName   string
	Suffix     string
	Email      string

	Department string
	ORCID      string
	ROR        string

	// OrganizationID links to the host's organization record, zero when unknown.
	OrganizationID   int64
	OrganizationName string

	CountryCode string
	City        string
}

// Article is the manuscript a quotation is requested for.
type Article struct {
	ID      int64
	Title   string
	Journal Journal
	Section *Section

	OwnerID                 int64
	CorrespondenceAccountID int64
	Authors                 []Author
	LastModified            time.Time
}

// SectionID returns a pointer to the section id, or nil when unassigned.
func (a *Article) SectionID() *int64 {
	if a.Section == nil {
		return nil
	}

	id := a.Section.ID

	return &id
}
