package llm

import (
	"context"
	"time"
)

const (
	DefaultBaseURL = "https://api.sambanova.ai/v1"
	DefaultModel   = "Llama-4-Maverick-17B-128E-Instruct"
)

// Client is a chat-style model endpoint.
type Client interface {
	Chat(ctx context.Context, model string, system, user string) (*LLMResponse, error)
}

// Completer is the single call contract the analysis pipeline needs: send a
// prompt, receive text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// ModelCompleter binds a Client to one model so it satisfies Completer.
type ModelCompleter struct {
	client Client
	model  string
}

func NewModelCompleter(client Client, model string) *ModelCompleter {
	if model == "" {
		model = DefaultModel
	}
	return &ModelCompleter{client: client, model: model}
}

func (m *ModelCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Chat(ctx, m.model, "", prompt)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (m *ModelCompleter) Model() string {
	return m.model
}
