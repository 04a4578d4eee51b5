package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type configurationBody struct {
	APIURL           string  `json:"api_url" validate:"max=20"`
	SectionMode      string  `json:"section_mode" validate:"omitempty,oneof=all include exclude"`
	SelectedSections []int64 `json:"selected_sections" validate:"dive,gt=0"`
	ButtonText       string  `json:"button_text" validate:"required"`
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
		details map[string]string
	}{
		{
			name:    "quotation not found",
			err:     domain.NewNotFoundError("quotation", "12"),
			status:  http.StatusNotFound,
			code:    ErrorCodeNotFound,
			message: domain.NewNotFoundError("quotation", "12").Error(),
		},
		{
			name:   "accepting a voided quotation",
			err:    fmt.Errorf("accept: %w", domain.NewConflictError("quotation", "voided")),
			status: http.StatusConflict,
			code:   ErrorCodeConflict,
		},
		{
			name:    "bad section id",
			err:     domain.NewValidationError("selected_sections", "must be positive"),
			status:  http.StatusBadRequest,
			code:    ErrorCodeValidation,
			details: map[string]string{"selected_sections": "must be positive"},
		},
		{
			name:   "not the article author",
			err:    domain.NewForbiddenError("quotation", "not an author"),
			status: http.StatusForbidden,
			code:   ErrorCodeForbidden,
		},
		{
			name:    "quotation api down",
			err:     domain.NewUnavailableError("quotation-api", "dial tcp 10.0.0.4:443: refused"),
			status:  http.StatusServiceUnavailable,
			code:    ErrorCodeUnavailable,
			message: "service temporarily unavailable",
		},
		{
			name:    "unexpected",
			err:     errors.New("sql: connection reset"),
			status:  http.StatusInternalServerError,
			code:    ErrorCodeInternal,
			message: "an internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapDomainError(tt.err)

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.details, resp.Error.Details)

			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
		})
	}
}

func TestStatusFor_UnknownCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(ErrorCodeBadRequest))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("TEAPOT"))
}

func TestFieldErrors(t *testing.T) {
	body := configurationBody{
		APIURL:           "https://billing.example.org/quotes",
		SectionMode:      "some",
		SelectedSections: []int64{3, 0},
	}

	err := Validator().Struct(body)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	assert.Equal(t, map[string]string{
		"api_url":              "must be at most 20 characters",
		"section_mode":         "must be one of: all include exclude",
		"selected_sections[1]": "must be greater than 0",
		"button_text":          "this field is required",
	}, FieldErrors(err))

	assert.Nil(t, FieldErrors(errors.New("eof")))
	assert.False(t, IsValidationError(domain.NewValidationError("x", "y")))
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		binding   bool
		validated bool
	}{
		{name: "valid", body: `{"button_text":"Pay","section_mode":"include","selected_sections":[4]}`},
		{name: "malformed", body: `{"button_text":`, binding: true},
		{name: "wrong type", body: `{"selected_sections":"4"}`, binding: true},
		{name: "invalid", body: `{"section_mode":"all"}`, validated: true},
		{name: "trailing data", body: `{"button_text":"Pay","section_mode":"all"} {"is_enabled":true}`, binding: true},
		{name: "empty", body: ``, binding: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/manager/oae/configuration", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var got configurationBody
			err := BindJSON(c, &got)

			switch {
			case tt.binding:
				assert.ErrorIs(t, err, ErrBinding)
			case tt.validated:
				assert.True(t, IsValidationError(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, []int64{4}, got.SelectedSections)
			}
		})
	}
}

func TestPageQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		limit   int
		after   int64
		wantErr bool
	}{
		{name: "first page", query: "", limit: DefaultLimit},
		{name: "explicit limit", query: "limit=5", limit: 5},
		{name: "resume", query: "cursor=" + EncodeCursor(481), limit: DefaultLimit, after: 481},
		{name: "garbage cursor", query: "cursor=%21%21", limit: DefaultLimit, wantErr: true},
		{
			name:    "foreign cursor",
			query:   "cursor=" + base64.RawURLEncoding.EncodeToString([]byte("offset:20")),
			limit:   DefaultLimit,
			wantErr: true,
		},
		{
			name:    "non-positive id",
			query:   "cursor=" + base64.RawURLEncoding.EncodeToString([]byte("id:0")),
			limit:   DefaultLimit,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/manager/oae/quotations?"+tt.query, nil)

			var q PageQuery
			require.NoError(t, BindQuery(c, &q))
			assert.Equal(t, tt.limit, q.PageLimit())

			after, err := q.AfterID()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCursor)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.after, after)
		})
	}
}

func TestPageQuery_LimitOutOfRange(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/manager/oae/quotations?limit=101", nil)

	var q PageQuery
	err := BindQuery(c, &q)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"limit": "must be at most 100"}, FieldErrors(err))
}

func TestNewPage(t *testing.T) {
	ids := []int64{9, 8, 7}
	label := func(id int64) string { return fmt.Sprintf("quotation-%d", id) }

	page := NewPage(ids, 7, label)
	assert.Equal(t, []string{"quotation-9", "quotation-8", "quotation-7"}, page.Items)
	assert.True(t, page.HasMore)
	assert.Equal(t, EncodeCursor(7), page.NextCursor)

	last := NewPage([]int64{}, 0, label)
	assert.Empty(t, last.Items)
	assert.NotNil(t, last.Items)
	assert.False(t, last.HasMore)

	raw, err := json.Marshal(last)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"hasMore":false}`, string(raw))
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/quotations/3/accept", nil)
	c.Header("X-Request-ID", "req-77")

	HandleError(c, domain.NewUnavailableError("quotation-api", "timeout"))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorCodeUnavailable, resp.Error.Code)
	assert.Equal(t, "req-77", resp.TraceID)
	assert.NotContains(t, w.Body.String(), "timeout")
}

func TestAbort(t *testing.T) {
	engine := gin.New()
	engine.GET("/api/v1/manager/:journal_code/configuration",
		func(c *gin.Context) { Abort(c, ErrorCodeForbidden, "editor role required") },
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/manager/oae/configuration", nil))

	require.Equal(t, http.StatusForbidden, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, *NewErrorResponse(ErrorCodeForbidden, "editor role required"), resp)
}
