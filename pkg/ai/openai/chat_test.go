package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, `{"nodes":[{"id":"Alice","type":"Person"}]}`, &seen)

	client := NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		ExtractionModel: "test-model",
		ChatURL:         srv.URL,
		ChatKey:         "test",
		MaxRetries:      0,
	})

	var out struct {
		Nodes []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"nodes"`
	}
	err := client.GenerateCompletionWithFormat(context.Background(), "graph", "extract", "Alice is a person.", &out)
	require.NoError(t, err)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "Alice", out.Nodes[0].ID)

	assert.Equal(t, "test-model", seen["model"])
	format, ok := seen["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])

	m := client.GetMetrics()
	assert.Equal(t, 1, m.Requests)
	assert.Equal(t, 10, m.TotalTokens)
}

func TestGenerateCompletionSystemPrompts(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, "hello", &seen)

	client := NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		ExtractionModel: "test-model",
		ChatURL:         srv.URL,
		ChatKey:         "test",
		MaxRetries:      0,
	})

	got, err := client.GenerateCompletion(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	msgs, ok := seen["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)
}

func TestGenerateCompletionWithFormatEmpty(t *testing.T) {
	srv := newTestServer(t, "", nil)

	client := NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		ExtractionModel: "test-model",
		ChatURL:         srv.URL,
		ChatKey:         "test",
		MaxRetries:      0,
	})

	var out map[string]any
	err := client.GenerateCompletionWithFormat(context.Background(), "graph", "extract", "x", &out)
	assert.Error(t, err)
}
