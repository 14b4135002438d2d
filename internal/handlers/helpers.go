package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nahidhasan98/checklist-notifier/internal/errors"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode JSON response", err)
	}
}

// writeAppError writes an application error response. Acknowledged events
// are answered with an "ignored" status instead of an error body.
func (h *Handler) writeAppError(w http.ResponseWriter, appErr *errors.AppError) {
	if appErr.Ignored() {
		h.log.With("reason", appErr.Code).Info(appErr.Message)
		h.writeJSON(w, &models.WebhookResponse{
			Status: "ignored",
			Reason: appErr.Message,
		}, appErr.StatusCode)
		return
	}

	response := &models.ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	}

	// Log the error for internal monitoring
	h.log.With("error_code", appErr.Code).
		With("status_code", appErr.StatusCode).
		Error(appErr.Message, appErr.Err)

	h.writeJSON(w, response, appErr.StatusCode)
}
