package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hubenschmidt/go-mfginsight/core"
)

// OpenAIClient talks to any OpenAI-compatible chat/completions endpoint.
// The default base URL is SambaNova's.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenAIClientWithConfig(cfg ClientConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *OpenAIClient) Chat(ctx context.Context, model string, system, user string) (*LLMResponse, error) {
	msgs := make([]openAIMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, openAIMessage{Role: string(core.RoleSystem), Content: TextContent(system)})
	}
	msgs = append(msgs, openAIMessage{Role: string(core.RoleUser), Content: SegmentContent(TextSegment(user))})

	body, err := json.Marshal(openAIRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return parseOpenAIResponse(result)
}

func parseOpenAIResponse(resp openAIResponse) (*LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, core.ErrEmptyCompletion
	}

	choice := resp.Choices[0]
	return &LLMResponse{
		Content:      choice.Message.Content.Text(),
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage,
	}, nil
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   Usage          `json:"usage"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}
