package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/app"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
)

// ManagerHandler serves the journal manager screens.
type ManagerHandler struct {
	service *app.ConfigurationService
}

// NewManagerHandler creates the handler.
func NewManagerHandler(service *app.ConfigurationService) *ManagerHandler {
	return &ManagerHandler{service: service}
}

// ConfigurationRequest is the editable configuration. The webhook secret is
// not accepted here; use the rotation endpoint.
type ConfigurationRequest struct {
	IsEnabled            bool    `json:"is_enabled"`
	APIURL               string  `json:"api_url" validate:"max=500"`
	RequestBodyTemplate  string  `json:"request_body_template"`
	ResponseQuoteIDField string  `json:"response_quote_id_field" validate:"max=100"`
	QuotationURLTemplate string  `json:"quotation_url_template" validate:"max=500"`
	Headers              string  `json:"headers"`
	RequireAcceptance    *bool   `json:"require_acceptance"`
	SectionMode          string  `json:"section_mode" validate:"omitempty,oneof=all include exclude"`
	SelectedSections     []int64 `json:"selected_sections" validate:"dive,gt=0"`
	ButtonText           string  `json:"button_text" validate:"max=100"`
	InstructionsText     string  `json:"instructions_text"`
}

// ConfigurationResponse is a journal's configuration.
type ConfigurationResponse struct {
	JournalID            int64      `json:"journal_id"`
	IsEnabled            bool       `json:"is_enabled"`
	APIURL               string     `json:"api_url"`
	RequestBodyTemplate  string     `json:"request_body_template"`
	ResponseQuoteIDField string     `json:"response_quote_id_field"`
	QuotationURLTemplate string     `json:"quotation_url_template"`
	Headers              string     `json:"headers"`
	HasWebhookSecret     bool       `json:"has_webhook_secret"`
	RequireAcceptance    bool       `json:"require_acceptance"`
	SectionMode          string     `json:"section_mode"`
	SelectedSections     []int64    `json:"selected_sections"`
	ButtonText           string     `json:"button_text"`
	InstructionsText     string     `json:"instructions_text"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

// SecretResponse reveals a freshly rotated webhook secret once.
type SecretResponse struct {
	WebhookSecret string `json:"webhook_secret"`
}

// QuotationResponse is a quotation as shown to managers.
type QuotationResponse struct {
	ID                int64           `json:"id"`
	ArticleID         int64           `json:"article_id"`
	AuthorID          int64           `json:"author_id"`
	Status            string          `json:"status"`
	ExternalQuoteID   string          `json:"external_quote_id,omitempty"`
	QuotationURL      string          `json:"quotation_url,omitempty"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	APIResponse       json.RawMessage `json:"api_response,omitempty"`
	WebhookPayload    json.RawMessage `json:"webhook_payload,omitempty"`
	WebhookReceivedAt *time.Time      `json:"webhook_received_at,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DeleteResponse reports a cascade delete.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func toConfigurationResponse(cfg *domain.QuotationConfiguration) *ConfigurationResponse {
	resp := &ConfigurationResponse{
		JournalID:            cfg.JournalID,
		IsEnabled:            cfg.IsEnabled,
		APIURL:               cfg.APIURL,
		RequestBodyTemplate:  cfg.RequestBodyTemplate,
		ResponseQuoteIDField: cfg.ResponseQuoteIDField,
		QuotationURLTemplate: cfg.QuotationURLTemplate,
		Headers:              cfg.Headers,
		HasWebhookSecret:     cfg.WebhookSecret != "",
		RequireAcceptance:    cfg.RequireAcceptance,
		SectionMode:          string(cfg.SectionMode),
		SelectedSections:     cfg.SelectedSections,
		ButtonText:           cfg.ButtonText,
		InstructionsText:     cfg.InstructionsText,
	}

	if resp.SelectedSections == nil {
		resp.SelectedSections = []int64{}
	}

	if !cfg.CreatedAt.IsZero() {
		resp.CreatedAt = &cfg.CreatedAt
		resp.UpdatedAt = &cfg.UpdatedAt
	}

	return resp
}

func toQuotationResponse(q *domain.Quotation) QuotationResponse {
	return QuotationResponse{
		ID:                q.ID,
		ArticleID:         q.ArticleID,
		AuthorID:          q.AuthorID,
		Status:            string(q.Status),
		ExternalQuoteID:   q.ExternalQuoteID,
		QuotationURL:      q.QuotationURL,
		ErrorMessage:      q.ErrorMessage,
		APIResponse:       q.APIResponse,
		WebhookPayload:    q.WebhookPayload,
		WebhookReceivedAt: q.WebhookReceivedAt,
		ExpiresAt:         q.ExpiresAt,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

// GetConfiguration handles GET /api/v1/manager/:journal_code/configuration.
func (h *ManagerHandler) GetConfiguration(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), c.Param("journal_code"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toConfigurationResponse(cfg))
}

// SaveConfiguration handles PUT /api/v1/manager/:journal_code/configuration.
func (h *ManagerHandler) SaveConfiguration(c *gin.Context) {
	var req ConfigurationRequest
	if err := dto.BindJSON(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	requireAcceptance := true
	if req.RequireAcceptance != nil {
		requireAcceptance = *req.RequireAcceptance
	}

	cfg, err := h.service.Save(c.Request.Context(), c.Param("journal_code"), app.ConfigurationInput{
		IsEnabled:            req.IsEnabled,
		APIURL:               req.APIURL,
		RequestBodyTemplate:  req.RequestBodyTemplate,
		ResponseQuoteIDField: req.ResponseQuoteIDField,
		QuotationURLTemplate: req.QuotationURLTemplate,
		Headers:              req.Headers,
		RequireAcceptance:    requireAcceptance,
		SectionMode:          domain.SectionMode(req.SectionMode),
		SelectedSections:     req.SelectedSections,
		ButtonText:           req.ButtonText,
		InstructionsText:     req.InstructionsText,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toConfigurationResponse(cfg))
}

// RotateSecret handles POST /api/v1/manager/:journal_code/configuration/secret.
func (h *ManagerHandler) RotateSecret(c *gin.Context) {
	cfg, err := h.service.RotateSecret(c.Request.Context(), c.Param("journal_code"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, SecretResponse{WebhookSecret: cfg.WebhookSecret})
}

// ListQuotations handles GET /api/v1/manager/:journal_code/quotations.
func (h *ManagerHandler) ListQuotations(c *gin.Context) {
	var query dto.PageQuery
	if err := dto.BindQuery(c, &query); err != nil {
		respondBindingError(c, err)
		return
	}

	after, err := query.AfterID()
	if err != nil {
		dto.HandleError(c, domain.NewValidationError("cursor", "invalid cursor"))
		return
	}

	result, err := h.service.ListQuotations(c.Request.Context(), c.Param("journal_code"),
		app.Page{Cursor: after, Limit: query.PageLimit()})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(result.Items, result.NextCursor, toQuotationResponse))
}

// GetQuotation handles GET /api/v1/manager/:journal_code/quotations/:quotation_id.
func (h *ManagerHandler) GetQuotation(c *gin.Context) {
	id, err := pathID(c, "quotation_id")
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	q, err := h.service.QuotationDetail(c.Request.Context(), c.Param("journal_code"), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuotationResponse(q))
}

// DeleteArticleQuotations handles DELETE /api/v1/manager/articles/:article_id/quotations,
// called by the host when an article is deleted.
func (h *ManagerHandler) DeleteArticleQuotations(c *gin.Context) {
	id, err := pathID(c, "article_id")
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	n, err := h.service.DeleteArticleQuotations(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Deleted: n})
}

// RegisterManagerRoutes registers the manager routes. The group must already
// require the manager role.
func (h *ManagerHandler) RegisterManagerRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/articles/:article_id/quotations", h.DeleteArticleQuotations)

	journal := rg.Group("/:journal_code")
	journal.GET("/configuration", h.GetConfiguration)
	journal.PUT("/configuration", h.SaveConfiguration)
	journal.POST("/configuration/secret", h.RotateSecret)
	journal.GET("/quotations", h.ListQuotations)
	journal.GET("/quotations/:quotation_id", h.GetQuotation)
}
