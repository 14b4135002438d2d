package handlers

import (
	"net/http"
	"time"

	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

// HealthCheck reports policy, collaborator and delivery state
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	targets := map[string]bool{}
	if h.opts.Targets != nil {
		targets = h.opts.Targets.Status()
	}

	status := "ok"
	for _, ready := range targets {
		if !ready {
			status = "degraded"
		}
	}

	h.writeJSON(w, &models.HealthResponse{
		Status:       status,
		Policies:     h.opts.PolicyCount,
		AIConfigured: h.opts.AIConfigured,
		Targets:      targets,
		Timestamp:    time.Now().Unix(),
	}, http.StatusOK)
}
