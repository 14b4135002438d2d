package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nahidhasan98/checklist-notifier/internal/errors"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

// GitHubWebhook handles GitHub push and pull_request deliveries
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	config := WebhookConfig{
		Provider:        ProviderGitHub,
		SignatureHeader: "X-Hub-Signature-256",
		EventHeader:     "X-GitHub-Event",
		Secret:          h.opts.GitHubSecret,
		SignaturePrefix: "sha256=",
	}

	h.handleWebhook(w, r, config, h.parseGitHubEvent)
}

func (h *Handler) parseGitHubEvent(eventType string, body []byte) (models.Event, *errors.AppError) {
	switch eventType {
	case "push":
		var payload models.GitHubPushPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return models.Event{}, invalidPayload(err)
		}
		return pushEvent(payload, h.opts.FetchPushDiffs)

	case "pull_request":
		var payload models.GitHubPullRequestPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return models.Event{}, invalidPayload(err)
		}
		if !payload.IsMergedClose() {
			return models.Event{}, errors.UnsupportedEvent("pull_request:" + payload.Action)
		}

		pr := payload.PullRequest
		return models.Event{
			Repository: payload.Repository.FullName,
			Branch:     pr.Base.Ref,
			Action:     payload.Action,
			Number:     pr.Number,
			Merged:     pr.Merged,
			After:      pr.MergeCommitSHA,
			CommitURL:  pr.HTMLURL,
		}, nil

	default:
		return models.Event{}, errors.UnsupportedEvent(eventType)
	}
}
