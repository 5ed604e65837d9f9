package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OFFIS-RIT/textgraph/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, text string, seen *map[string]any) *GraphAnthropicClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"usage":       map[string]any{"input_tokens": 20, "output_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)

	return NewGraphAnthropicClient(NewGraphAnthropicClientParams{
		ExtractionModel: "claude-test",
		BaseURL:         srv.URL,
		ApiKey:          "test",
		MaxRetries:      0,
	})
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	var seen map[string]any
	client := newTestClient(t, "```json\n{\"nodes\":[{\"id\":\"Acme\",\"type\":\"Organization\"}]}\n```", &seen)

	var out struct {
		Nodes []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"nodes"`
	}
	err := client.GenerateCompletionWithFormat(
		context.Background(), "graph", "extract", "Acme builds rockets.", &out,
		ai.WithSystemPrompts("extract a graph"),
	)
	require.NoError(t, err)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "Organization", out.Nodes[0].Type)

	system, ok := seen["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 2)
	assert.Contains(t, system[1].(map[string]any)["text"], `"nodes"`)
	assert.EqualValues(t, defaultMaxTokens, seen["max_tokens"])

	m := client.GetMetrics()
	assert.Equal(t, 25, m.TotalTokens)
}

func TestGenerateCompletion(t *testing.T) {
	client := newTestClient(t, "plain answer", nil)

	got, err := client.GenerateCompletion(context.Background(), "hi", ai.WithMaxTokens(64))
	require.NoError(t, err)
	assert.Equal(t, "plain answer", got)
}

func TestGenerateCompletionEmpty(t *testing.T) {
	client := newTestClient(t, "", nil)

	_, err := client.GenerateCompletion(context.Background(), "hi")
	assert.Error(t, err)
}
