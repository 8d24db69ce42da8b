package llm

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNoClient = errors.New("no completion client configured")

// UnifiedClient routes a model name to a provider by prefix. Unprefixed
// models go to the OpenAI-compatible endpoint.
type UnifiedClient struct {
	compat    *OpenAIClient
	anthropic *AnthropicClient
	ollama    *OpenAIClient
}

type UnifiedConfig struct {
	APIKey       string
	BaseURL      string
	AnthropicKey string
	OllamaURL    string
	Timeout      time.Duration
}

func NewUnifiedClient(cfg UnifiedConfig) *UnifiedClient {
	u := &UnifiedClient{}
	timeout := cfg.Timeout

	if cfg.APIKey != "" {
		u.compat = NewOpenAIClientWithConfig(ClientConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		})
	}

	if cfg.AnthropicKey != "" {
		u.anthropic = NewAnthropicClientWithConfig(ClientConfig{
			APIKey:  cfg.AnthropicKey,
			Timeout: timeout,
		})
	}

	if cfg.OllamaURL != "" {
		u.ollama = NewOpenAIClientWithConfig(ClientConfig{
			BaseURL: cfg.OllamaURL,
			Timeout: timeout,
		})
	}

	return u
}

func (u *UnifiedClient) Chat(ctx context.Context, model string, system, user string) (*LLMResponse, error) {
	client, resolvedModel := u.resolveClient(model)
	if client == nil {
		return nil, ErrNoClient
	}
	return client.Chat(ctx, resolvedModel, system, user)
}

func (u *UnifiedClient) resolveClient(model string) (Client, string) {
	switch {
	case strings.HasPrefix(model, "claude-") && u.anthropic != nil:
		return u.anthropic, model
	case strings.HasPrefix(model, "ollama/") && u.ollama != nil:
		return u.ollama, strings.TrimPrefix(model, "ollama/")
	}
	return u.defaultClient(), model
}

func (u *UnifiedClient) defaultClient() Client {
	switch {
	case u.compat != nil:
		return u.compat
	case u.anthropic != nil:
		return u.anthropic
	case u.ollama != nil:
		return u.ollama
	}
	return nil
}

func (u *UnifiedClient) HasCompat() bool {
	return u.compat != nil
}

func (u *UnifiedClient) HasAnthropic() bool {
	return u.anthropic != nil
}

func (u *UnifiedClient) HasOllama() bool {
	return u.ollama != nil
}
