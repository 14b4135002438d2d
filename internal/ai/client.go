package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Request contains the prompt sent to the model
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response contains the raw text returned by the model
type Response struct {
	Content    string
	TokensUsed int
}

// Client is the generative-text collaborator
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Options configures a client
type Options struct {
	Provider   string
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Configured reports whether both an endpoint and a credential are present
func (o Options) Configured() bool {
	return strings.TrimSpace(o.Endpoint) != "" && strings.TrimSpace(o.APIKey) != ""
}

// New creates a client for the configured provider
func New(opts Options) (Client, error) {
	if !opts.Configured() {
		return nil, fmt.Errorf("AI endpoint and API key are required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	switch strings.ToLower(opts.Provider) {
	case "", "openai", "azure", "ollama", "lmstudio":
		return &OpenAI{
			apiKey:  opts.APIKey,
			model:   opts.Model,
			baseURL: opts.Endpoint,
			client:  httpClient,
		}, nil
	case "anthropic":
		return &Anthropic{
			apiKey:  opts.APIKey,
			model:   opts.Model,
			baseURL: opts.Endpoint,
			client:  httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", opts.Provider)
	}
}

// APIError is returned when the provider answers with a non-success status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, body)
}
