package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/app"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

// WebhookHandler receives status callbacks from quotation services.
type WebhookHandler struct {
	service *app.WebhookService
}

// NewWebhookHandler creates the handler.
func NewWebhookHandler(service *app.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// WebhookResponse acknowledges an applied callback.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Receive handles POST /webhook/:journal_code/.
// Rejections are answered with a plain-text 400 naming the reason.
func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	q, err := h.service.Handle(ctx, app.WebhookDelivery{
		JournalCode: c.Param("journal_code"),
		Body:        body,
		Signature:   c.GetHeader(app.SignatureHeader),
	})
	if err != nil {
		var rejection *app.WebhookRejection
		if errors.As(err, &rejection) {
			c.String(http.StatusBadRequest, rejection.Reason)
			return
		}

		logging.FromContext(ctx).ErrorContext(ctx, "webhook processing failed",
			"journal_code", c.Param("journal_code"),
			"error", err.Error(),
		)
		c.String(http.StatusInternalServerError, "Internal error")

		return
	}

	c.JSON(http.StatusOK, WebhookResponse{Success: true, Status: string(q.Status)})
}

// RegisterWebhookRoutes registers the unauthenticated callback route.
func (h *WebhookHandler) RegisterWebhookRoutes(engine *gin.Engine) {
	engine.POST("/webhook/:journal_code/", h.Receive)
}
