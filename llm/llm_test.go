package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-mfginsight/core"
)

func TestContentUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     string
		segments bool
	}{
		{name: "plain string", raw: `"SELECT 1"`, want: "SELECT 1"},
		{name: "text segments", raw: `[{"type":"text","text":"a"},{"type":"text","text":"b"}]`, want: "a\nb", segments: true},
		{name: "mixed segments", raw: `[{"type":"image","url":"x"},{"type":"text","text":"only"},"stray",7]`, want: "only", segments: true},
		{name: "text type without text", raw: `[{"type":"text"},{"type":"text","text":"kept"}]`, want: "kept", segments: true},
		{name: "null", raw: `null`, want: ""},
		{name: "object coerced", raw: `{"k":1}`, want: `{"k":1}`},
		{name: "number coerced", raw: `42`, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &c))
			assert.Equal(t, tt.want, c.Text())
			assert.Equal(t, tt.segments, c.IsSegments())
		})
	}
}

func TestContentMarshal(t *testing.T) {
	b, err := json.Marshal(SegmentContent(TextSegment("hi")))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"text","text":"hi"}]`, string(b))

	b, err = json.Marshal(TextContent("plain"))
	require.NoError(t, err)
	assert.JSONEq(t, `"plain"`, string(b))
}

func TestOpenAIClientChat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"line1"},{"type":"text","text":"line2"}]},"finish_reason":"stop"}],"usage":{"total_tokens":9}}`)
	}))
	defer srv.Close()

	c := NewOpenAIClientWithConfig(ClientConfig{APIKey: "secret", BaseURL: srv.URL, Timeout: time.Second})
	resp, err := c.Chat(context.Background(), DefaultModel, "", "hello")
	require.NoError(t, err)

	assert.Equal(t, "line1\nline2", resp.Content)
	assert.Equal(t, 9, resp.Usage.TotalTokens)

	assert.Equal(t, false, captured["stream"])
	assert.Equal(t, DefaultModel, captured["model"])
	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, []any{map[string]any{"type": "text", "text": "hello"}}, msg["content"])
}

func TestOpenAIClientErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewOpenAIClientWithConfig(ClientConfig{BaseURL: srv.URL, Timeout: time.Second})
		_, err := c.Chat(context.Background(), "m", "", "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"choices":[]}`)
		}))
		defer srv.Close()

		c := NewOpenAIClientWithConfig(ClientConfig{BaseURL: srv.URL, Timeout: time.Second})
		_, err := c.Chat(context.Background(), "m", "", "q")
		assert.ErrorIs(t, err, core.ErrEmptyCompletion)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		c := NewOpenAIClientWithConfig(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
		_, err := c.Chat(context.Background(), "m", "", "q")
		assert.Error(t, err)
	})
}

func TestModelCompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"plain answer"}}]}`)
	}))
	defer srv.Close()

	u := NewUnifiedClient(UnifiedConfig{APIKey: "k", BaseURL: srv.URL, Timeout: time.Second})
	m := NewModelCompleter(u, "")
	assert.Equal(t, DefaultModel, m.Model())

	out, err := m.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "plain answer", out)
}

func TestUnifiedClientRouting(t *testing.T) {
	u := NewUnifiedClient(UnifiedConfig{APIKey: "k", AnthropicKey: "a", OllamaURL: "http://localhost:11434/v1"})

	c, model := u.resolveClient("claude-sonnet")
	assert.IsType(t, &AnthropicClient{}, c)
	assert.Equal(t, "claude-sonnet", model)

	c, model = u.resolveClient("ollama/llama3")
	assert.Same(t, u.ollama, c)
	assert.Equal(t, "llama3", model)

	c, model = u.resolveClient(DefaultModel)
	assert.Same(t, u.compat, c)
	assert.Equal(t, DefaultModel, model)

	empty := NewUnifiedClient(UnifiedConfig{})
	_, err := empty.Chat(context.Background(), DefaultModel, "", "q")
	assert.ErrorIs(t, err, ErrNoClient)
}
