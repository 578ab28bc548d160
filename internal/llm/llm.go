// Package llm abstracts the text-completion providers used for quiz
// generation and grading. Providers are cheap to construct and are
// built per request because API keys belong to the calling principal,
// not to the server.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when a provider is requested without
// an API key. It is surfaced before any network call is attempted.
var ErrMissingCredential = errors.New("llm: no API key configured")

// Provider sends a single instruction string to a model and returns the
// raw completion text. The caller never trusts the shape of the result.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Config selects and parameterizes a provider.
type Config struct {
	Provider    string  // "gemini", "openrouter" or "mock"
	APIKey      string
	Model       string  // empty means the provider default
	Temperature float32
}

// New creates a Provider from configuration.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGemini(ctx, cfg)
	case "openrouter":
		return NewOpenRouter(cfg)
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
