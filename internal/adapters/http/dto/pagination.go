package dto

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// DefaultLimit and MaxLimit bound a listing page.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// cursorPrefix versions the opaque cursor format.
const cursorPrefix = "id:"

// ErrInvalidCursor is returned for cursors this service did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// PageQuery is the query string of a newest-first listing.
type PageQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// PageLimit returns the requested limit, or DefaultLimit when none was given.
func (q PageQuery) PageLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}

	return min(q.Limit, MaxLimit)
}

// AfterID decodes the cursor into the id of the last item already seen.
// An empty cursor decodes to zero, the first page.
func (q PageQuery) AfterID() (int64, error) {
	if q.Cursor == "" {
		return 0, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(q.Cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}

	digits, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, ErrInvalidCursor
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidCursor
	}

	return id, nil
}

// EncodeCursor returns the opaque cursor that resumes after id.
func EncodeCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(id, 10)))
}

// Page is one page of a listing. NextCursor is empty on the last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage converts items with convert. nextID is the id to resume after, or
// zero when the listing is exhausted.
func NewPage[S, T any](items []S, nextID int64, convert func(S) T) *Page[T] {
	page := &Page[T]{
		Items:   make([]T, 0, len(items)),
		HasMore: nextID != 0,
	}

	for _, item := range items {
		page.Items = append(page.Items, convert(item))
	}

	if page.HasMore {
		page.NextCursor = EncodeCursor(nextID)
	}

	return page
}
