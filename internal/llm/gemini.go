package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini implements Provider using the Google Gemini SDK.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini provider for the given per-principal key.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	// The UI sometimes hands over resource-style names.
	model = strings.TrimPrefix(model, "models/")

	return &Gemini{client: client, model: model, temperature: cfg.Temperature}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if g.temperature > 0 {
		temp := g.temperature
		config.Temperature = &temp
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("gemini: empty completion")
	}
	slog.Debug("gemini completion", "model", g.model, "length", len(text))
	return text, nil
}

func (g *Gemini) Model() string { return g.model }
