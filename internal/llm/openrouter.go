package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openRouterBaseURL      = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "xiaomi/mimo-v2-flash:free"
)

// displayNameModels maps UI display names to OpenRouter model IDs.
// The frontend historically stored names like
// "Xiaomi Mimo V2 Flash (Free) - Recommended" instead of the real ID.
var displayNameModels = map[string]string{
	"xiaomi mimo v2 flash":                "xiaomi/mimo-v2-flash:free",
	"xiaomi/mimo-v2-flash":                "xiaomi/mimo-v2-flash:free",
	"qwen/qwen-2.5-7b-instruct":           "qwen/qwen-2.5-7b-instruct:free",
	"meta-llama/llama-3.2-3b-instruct":    "meta-llama/llama-3.2-3b-instruct:free",
}

// OpenRouter implements Provider against the OpenRouter
// OpenAI-compatible API.
type OpenRouter struct {
	api         *openai.Client
	model       string
	temperature float32
}

// NewOpenRouter creates an OpenRouter provider for the given key.
func NewOpenRouter(cfg Config) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = openRouterBaseURL

	return &OpenRouter{
		api:         openai.NewClientWithConfig(clientCfg),
		model:       resolveModelID(cfg.Model),
		temperature: cfg.Temperature,
	}, nil
}

func (o *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenRouter) Model() string { return o.model }

// resolveModelID turns a display name into an OpenRouter model ID.
func resolveModelID(name string) string {
	if name == "" {
		return defaultOpenRouterModel
	}
	// Already a real ID.
	if strings.Contains(name, "/") && strings.Contains(name, ":") {
		return name
	}

	cleaned := strings.ToLower(strings.TrimSpace(name))
	cleaned = strings.TrimSpace(strings.SplitN(cleaned, "(", 2)[0])
	if strings.Contains(cleaned, "recommended") {
		cleaned = strings.TrimSpace(strings.SplitN(cleaned, "-", 2)[0])
	}

	for key, id := range displayNameModels {
		if strings.Contains(cleaned, key) {
			return id
		}
	}
	return defaultOpenRouterModel
}
