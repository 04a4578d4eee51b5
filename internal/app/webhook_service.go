package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/telemetry"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
	"github.com/jsamuelsen/fee-quotation-service/internal/render"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Webhook-Signature"

// Reasons returned to webhook callers.
const (
	reasonInvalidJournal = "Invalid journal code"
	reasonNotConfigured  = "Fee quotation not configured for this journal"
	reasonBadSignature   = "Invalid signature"
	reasonInvalidJSON    = "Invalid JSON payload"
	reasonMissingQuoteID = "Missing quote_id"
	reasonNotFound       = "Quotation not found"
	reasonUnknownStatus  = "Unknown status: %s"
)

// WebhookRejection is a delivery refused before any record changed. Reason
// is safe to return to the caller verbatim.
type WebhookRejection struct {
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *WebhookRejection) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("webhook rejected: %s: %v", e.Reason, e.Cause)
	}

	return "webhook rejected: " + e.Reason
}

// Unwrap returns ErrValidation so rejections map to client errors.
func (e *WebhookRejection) Unwrap() error {
	return domain.ErrValidation
}

func reject(reason string, cause error) error {
	return &WebhookRejection{Reason: reason, Cause: cause}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature with Sign(secret, body) in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := Sign(secret, body)

	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(signature)), []byte(expected)) == 1
}

// WebhookDelivery is one inbound callback.
type WebhookDelivery struct {
	JournalCode string
	Body        []byte
	Signature   string
}

// WebhookService applies signed acceptance and decline callbacks.
type WebhookService struct {
	quotations ports.QuotationRepository
	configs    ports.ConfigurationRepository
	host       ports.HostPlatform
	events     ports.EventPublisher
	clock      ports.Clock

	// requireSignature rejects deliveries when either the secret or the
	// signature header is missing.
	requireSignature bool

	logger *slog.Logger
}

// WebhookServiceConfig contains the dependencies of the webhook service.
type WebhookServiceConfig struct {
	Quotations       ports.QuotationRepository
	Configurations   ports.ConfigurationRepository
	Host             ports.HostPlatform
	Events           ports.EventPublisher
	Clock            ports.Clock
	RequireSignature bool
	Logger           *slog.Logger
}

// NewWebhookService creates a webhook service.
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock
	}

	return &WebhookService{
		quotations:       cfg.Quotations,
		configs:          cfg.Configurations,
		host:             cfg.Host,
		events:           cfg.Events,
		clock:            clock,
		requireSignature: cfg.RequireSignature,
		logger:           logger.With(slog.String("component", "app.WebhookService")),
	}
}

// Handle verifies and applies a delivery, returning the updated quotation.
// Refused deliveries return a *WebhookRejection and leave every record as it was.
func (s *WebhookService) Handle(ctx context.Context, d WebhookDelivery) (*domain.Quotation, error) {
	logger := s.logger.With(slog.String("journal_code", d.JournalCode))

	q, err := s.apply(ctx, d)
	if err != nil {
		var rejection *WebhookRejection
		if errors.As(err, &rejection) {
			telemetry.RecordWebhook("rejected")
			logger.WarnContext(ctx, "webhook rejected", slog.String("reason", rejection.Reason))
		} else {
			telemetry.RecordWebhook("failed")
		}

		return nil, err
	}

	telemetry.RecordWebhook(string(q.Status))
	logger.InfoContext(ctx, "webhook applied",
		slog.Int64("quotation_id", q.ID),
		slog.String("external_quote_id", q.ExternalQuoteID),
		slog.String("status", string(q.Status)),
	)
	publishQuotationEvent(ctx, s.events, logger, q)

	return q, nil
}

func (s *WebhookService) apply(ctx context.Context, d WebhookDelivery) (*domain.Quotation, error) {
	journal, err := s.host.JournalByCode(ctx, d.JournalCode)
	if domain.IsNotFound(err) {
		return nil, reject(reasonInvalidJournal, err)
	}

	if err != nil {
		return nil, fmt.Errorf("resolving journal: %w", err)
	}

	cfg, err := s.configs.ConfigFor(ctx, journal.ID)
	if domain.IsNotFound(err) {
		return nil, reject(reasonNotConfigured, err)
	}

	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if !s.signatureOK(cfg.WebhookSecret, d) {
		return nil, reject(reasonBadSignature, nil)
	}

	var body map[string]any
	if err := render.Decode(d.Body, &body); err != nil {
		return nil, reject(reasonInvalidJSON, err)
	}

	quoteID, ok := render.LookupString(body, "quote_id")
	if !ok {
		return nil, reject(reasonMissingQuoteID, nil)
	}

	matches, err := s.quotations.List(ctx, ports.QuotationFilter{
		JournalID:       journal.ID,
		ExternalQuoteID: quoteID,
		Statuses:        domain.WebhookTargetStatuses,
		Limit:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("finding quotation %q: %w", quoteID, err)
	}

	if len(matches) == 0 {
		return nil, reject(reasonNotFound, nil)
	}

	q := matches[0]
	status, _ := body["status"].(string)
	now := s.clock.Now()

	switch strings.ToLower(status) {
	case string(domain.StatusAccepted):
		err = q.Accept(json.RawMessage(d.Body), now)
	case string(domain.StatusDeclined):
		err = q.Decline(json.RawMessage(d.Body), now)
	default:
		return nil, reject(fmt.Sprintf(reasonUnknownStatus, strings.ToLower(status)), nil)
	}

	// Pending and requested records have no quote to decide on yet.
	if domain.IsInvalidTransition(err) {
		return nil, reject(reasonNotFound, err)
	}

	if err != nil {
		return nil, err
	}

	if err := s.quotations.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("storing webhook result: %w", err)
	}

	return q, nil
}

// signatureOK checks the delivery's signature. Without a secret or header the
// outcome depends on requireSignature.
func (s *WebhookService) signatureOK(secret string, d WebhookDelivery) bool {
	if secret == "" || strings.TrimSpace(d.Signature) == "" {
		return !s.requireSignature
	}

	return VerifySignature(secret, d.Body, d.Signature)
}
