// Package ai implements the generative-text collaborator used to augment
// review checklists.
//
// Two wire formats are supported: OpenAI-compatible chat completions (which
// also covers Azure OpenAI, Ollama and LM Studio deployments) and the
// Anthropic messages API. Every call is a single request/response exchange;
// callers bound it with a context deadline and fall back on failure.
package ai
