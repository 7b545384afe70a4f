// Package llm wraps the completion providers used for utterance and
// description generation.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON means the model answered but the payload was not valid
// JSON. Terminal for the call, never retried.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// ErrMissingAPIKey surfaces at construction time, before any request.
var ErrMissingAPIKey = errors.New("llm: missing API key")

// Client is one completion provider. GenerateJSON forces the provider's
// JSON response mode; GenerateText is free-form.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Provider names accepted by New.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// New builds the provider selected by name. Empty selects Groq.
func New(ctx context.Context, provider, apiKey string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderGroq, "":
		return NewGroqClient(apiKey, "")
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey, "")
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}
