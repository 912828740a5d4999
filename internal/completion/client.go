// Package completion wraps the hosted chat-completion service behind a
// minimal client interface so agents never touch a vendor SDK directly.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string
	Content string
}

// Client sends an ordered message list to the model and returns the
// generated text.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config controls client construction.
type Config struct {
	Mode    string
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient selects a completion backend by mode. "auto" prefers the real
// service when a key is configured and falls back to the deterministic mock.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIClient(cfg)
		}
		return NewMockClient(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("OPENAI_API_KEY is required for openai mode")
		}
		return NewOpenAIClient(cfg)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported completion mode %q", cfg.Mode)
	}
}
