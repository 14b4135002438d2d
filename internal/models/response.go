package models

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string          `json:"status"`
	Policies     int             `json:"policies"`
	AIConfigured bool            `json:"ai_configured"`
	Targets      map[string]bool `json:"targets"`
	Timestamp    int64           `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WebhookResponse represents the outcome of a processed webhook
type WebhookResponse struct {
	Status     string `json:"status"`
	Repository string `json:"repository,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RiskLevel  string `json:"risk_level,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Fragments  int    `json:"fragments,omitempty"`
}
