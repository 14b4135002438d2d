package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nahidhasan98/checklist-notifier/internal/errors"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

// maxWebhookBody bounds the payload read from a webhook request
const maxWebhookBody = 25 << 20

// WebhookProvider represents different webhook providers
type WebhookProvider string

const (
	ProviderGitea  WebhookProvider = "Gitea"
	ProviderGitHub WebhookProvider = "GitHub"
)

// WebhookConfig holds configuration for webhook processing
type WebhookConfig struct {
	Provider        WebhookProvider
	SignatureHeader string
	EventHeader     string
	Secret          string
	SignaturePrefix string // e.g., "sha256=" for GitHub
}

// PushPayload is implemented by the push payloads of every provider
type PushPayload interface {
	GetRepositoryName() string
	GetBranch() string
	GetCommits() []models.Commit
	GetCompareURL() string
	GetChangedPaths() []models.ChangedFile
	GetRevisions() (string, string)
	IsDeletion() bool
}

// EventParser turns a verified payload into a normalized event
type EventParser func(eventType string, body []byte) (models.Event, *errors.AppError)

// handleWebhook verifies, normalizes and processes a webhook delivery
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request, config WebhookConfig, parse EventParser) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.writeAppError(w, errors.InvalidRequest("Failed to read request body: "+err.Error()))
		return
	}

	if !h.verifyWebhookSignature(body, r.Header.Get(config.SignatureHeader), config) {
		h.log.Warnf("Invalid %s webhook signature", config.Provider)
		h.writeAppError(w, errors.InvalidSignature())
		return
	}

	eventType := r.Header.Get(config.EventHeader)
	h.log.With("provider", config.Provider).With("event", eventType).Info("Webhook received")

	event, appErr := parse(eventType, body)
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	if appErr := h.validator.ValidateEvent(&event); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}
	h.validator.SanitizeEvent(&event)

	// Processing outlives a client disconnect but not the event timeout
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.opts.EventTimeout)
	defer cancel()

	outcome, err := h.processor.Process(ctx, event)
	if err != nil {
		h.writeAppError(w, appErrorFor(err, event))
		return
	}

	h.writeJSON(w, &models.WebhookResponse{
		Status:     "notified",
		Repository: outcome.Repository,
		Branch:     outcome.Branch,
		RiskLevel:  string(outcome.Classification.RiskLevel),
		Scope:      string(outcome.Classification.Scope),
		Fragments:  len(outcome.Fragments),
	}, http.StatusOK)
}

// pushEvent normalizes a push payload. Payload paths are used when diffs
// are not fetched or the push has no base revision to compare against.
func pushEvent(p PushPayload, fetchDiffs bool) (models.Event, *errors.AppError) {
	if p.IsDeletion() {
		return models.Event{}, errors.New(errors.ErrCodeUnsupportedEvent, "Branch deletions are not processed")
	}

	before, after := p.GetRevisions()
	event := models.Event{
		Repository: p.GetRepositoryName(),
		Branch:     p.GetBranch(),
		Commits:    p.GetCommits(),
		Action:     "push",
		Before:     before,
		After:      after,
		CommitURL:  p.GetCompareURL(),
	}

	if !fetchDiffs || models.IsZeroRevision(before) {
		event.Files = p.GetChangedPaths()
		event.FilesFromPayload = true
	}

	return event, nil
}

// verifyWebhookSignature verifies the HMAC SHA256 signature of the webhook payload
func (h *Handler) verifyWebhookSignature(payload []byte, headerSignature string, config WebhookConfig) bool {
	if config.Secret == "" {
		h.log.Warnf("%s webhook secret not configured, skipping signature verification", config.Provider)
		return true
	}
	if headerSignature == "" {
		return false
	}

	providedSignature := headerSignature
	if config.SignaturePrefix != "" {
		if !strings.HasPrefix(headerSignature, config.SignaturePrefix) {
			return false
		}
		providedSignature = strings.TrimPrefix(headerSignature, config.SignaturePrefix)
	}

	return hmac.Equal([]byte(providedSignature), []byte(Sign(payload, config.Secret)))
}

// Sign returns the hex HMAC SHA256 of payload under secret
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func invalidPayload(err error) *errors.AppError {
	return errors.InvalidRequest(fmt.Sprintf("Invalid webhook payload: %v", err))
}
