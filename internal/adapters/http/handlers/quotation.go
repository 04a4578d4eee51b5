package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/app"
	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

// msgUnexpected is shown to authors instead of internal failure details.
const msgUnexpected = "An unexpected error occurred. Please try again."

// QuotationHandler serves the author-facing quotation endpoints.
type QuotationHandler struct {
	service   *app.QuotationService
	publicURL string
}

// NewQuotationHandler creates the handler. publicURL is the externally
// visible origin used for webhook callback URLs; when empty it is derived
// from each request.
func NewQuotationHandler(service *app.QuotationService, publicURL string) *QuotationHandler {
	return &QuotationHandler{
		service:   service,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// RequestResponse is returned by the request endpoint.
type RequestResponse struct {
	Success      bool   `json:"success"`
	QuotationID  int64  `json:"quotation_id,omitempty"`
	QuotationURL string `json:"quotation_url,omitempty"`
	Status       string `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
}

// StatusResponse is the polling snapshot of one quotation.
type StatusResponse struct {
	QuotationID  int64  `json:"quotation_id"`
	Status       string `json:"status"`
	IsAccepted   bool   `json:"is_accepted"`
	CanProceed   bool   `json:"can_proceed"`
	QuotationURL string `json:"quotation_url"`
}

// QuotationSummary describes a quotation on the review page.
type QuotationSummary struct {
	ID           int64      `json:"id"`
	Status       string     `json:"status"`
	QuotationURL string     `json:"quotation_url,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ReviewResponse is the submission review panel state.
type ReviewResponse struct {
	Enabled          bool              `json:"enabled"`
	IsRequired       bool              `json:"is_required"`
	IsAccepted       bool              `json:"is_accepted"`
	Quotation        *QuotationSummary `json:"quotation,omitempty"`
	ButtonText       string            `json:"button_text,omitempty"`
	InstructionsText string            `json:"instructions_text,omitempty"`
}

// Request handles POST /request/:article_id/.
// A quotation that ended in the error state is reported as a 400 with its
// message; anything unexpected is a 500 with a generic message.
func (h *QuotationHandler) Request(c *gin.Context) {
	ctx := c.Request.Context()

	articleID, err := pathID(c, "article_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, RequestResponse{Error: "Invalid article id."})
		return
	}

	authorID, err := accountID(c)
	if err != nil {
		c.JSON(http.StatusForbidden, RequestResponse{Error: "Authentication required."})
		return
	}

	q, err := h.service.RequestForAuthor(ctx, articleID, authorID, h.origin(c))
	switch {
	case err == nil:
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, RequestResponse{Error: "Article not found."})
		return
	default:
		logging.FromContext(ctx).ErrorContext(ctx, "quotation request failed",
			"article_id", articleID,
			"error", err.Error(),
		)
		c.JSON(http.StatusInternalServerError, RequestResponse{Error: msgUnexpected})

		return
	}

	if q.Status == domain.StatusError {
		c.JSON(http.StatusBadRequest, RequestResponse{Error: q.ErrorMessage})
		return
	}

	c.JSON(http.StatusOK, RequestResponse{
		Success:      true,
		QuotationID:  q.ID,
		QuotationURL: q.QuotationURL,
		Status:       string(q.Status),
	})
}

// Status handles GET /status/:quotation_id/.
func (h *QuotationHandler) Status(c *gin.Context) {
	quotationID, err := pathID(c, "quotation_id")
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	authorID, err := accountID(c)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	snapshot, err := h.service.Status(c.Request.Context(), quotationID, authorID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		QuotationID:  snapshot.QuotationID,
		Status:       string(snapshot.Status),
		IsAccepted:   snapshot.IsAccepted,
		CanProceed:   snapshot.CanProceed,
		QuotationURL: snapshot.QuotationURL,
	})
}

// Review handles GET /api/v1/articles/:article_id/fee-quotation, the hook
// the host calls before rendering the submission review page.
func (h *QuotationHandler) Review(c *gin.Context) {
	articleID, err := pathID(c, "article_id")
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	authorID, err := accountID(c)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	review, err := h.service.Review(c.Request.Context(), articleID, authorID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := ReviewResponse{
		Enabled:          review.Enabled,
		IsRequired:       review.Required,
		IsAccepted:       review.Accepted,
		ButtonText:       review.ButtonText,
		InstructionsText: review.InstructionsText,
	}

	if q := review.Quotation; q != nil {
		resp.Quotation = &QuotationSummary{
			ID:           q.ID,
			Status:       string(q.Status),
			QuotationURL: q.QuotationURL,
			ExpiresAt:    q.ExpiresAt,
			CreatedAt:    q.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// origin returns the scheme and host callbacks should be addressed to.
func (h *QuotationHandler) origin(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + c.Request.Host
}

// RegisterAuthorRoutes registers the author-facing routes. The group must
// already require authentication.
func (h *QuotationHandler) RegisterAuthorRoutes(rg *gin.RouterGroup) {
	rg.POST("/request/:article_id/", h.Request)
	rg.GET("/status/:quotation_id/", h.Status)
}

// RegisterReviewRoutes registers the review hook on an authenticated API group.
func (h *QuotationHandler) RegisterReviewRoutes(rg *gin.RouterGroup) {
	rg.GET("/articles/:article_id/fee-quotation", h.Review)
}
