package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nahidhasan98/checklist-notifier/internal/errors"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

// GiteaWebhook handles Gitea push deliveries. Gitea repositories are not
// reachable through the GitHub API, so payload paths are always used.
func (h *Handler) GiteaWebhook(w http.ResponseWriter, r *http.Request) {
	config := WebhookConfig{
		Provider:        ProviderGitea,
		SignatureHeader: "X-Gitea-Signature",
		EventHeader:     "X-Gitea-Event",
		Secret:          h.opts.GiteaSecret,
	}

	h.handleWebhook(w, r, config, func(eventType string, body []byte) (models.Event, *errors.AppError) {
		if eventType != "push" {
			return models.Event{}, errors.UnsupportedEvent(eventType)
		}

		var payload models.GiteaPushPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return models.Event{}, invalidPayload(err)
		}
		return pushEvent(payload, false)
	})
}
