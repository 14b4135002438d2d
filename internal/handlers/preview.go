package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/nahidhasan98/checklist-notifier/internal/errors"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/pipeline"
)

// Classify previews the classification, checklist and fragments of a
// normalized event without delivering anything
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&event); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid request body: "+err.Error()))
		return
	}

	if appErr := h.validator.ValidateEvent(&event); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}
	h.validator.SanitizeEvent(&event)

	outcome, err := h.processor.Preview(r.Context(), event)
	if stderrors.Is(err, pipeline.ErrUnconfigured) {
		h.writeAppError(w, errors.Wrapf(err, errors.ErrCodeNotFound, "No policy for repository %s", event.Repository))
		return
	}
	if err != nil {
		h.writeAppError(w, errors.InternalError(err))
		return
	}

	h.writeJSON(w, outcome, http.StatusOK)
}
