package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/textgraph/internal/metrics"
	mid "github.com/OFFIS-RIT/textgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/textgraph/pkg/chunk"
	"github.com/OFFIS-RIT/textgraph/pkg/common"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
)

type graphResponse struct {
	Message      string              `json:"message"`
	RunID        string              `json:"run_id"`
	Nodes        int                 `json:"nodes"`
	Edges        int                 `json:"edges"`
	DroppedEdges int                 `json:"dropped_edges"`
	Outputs      map[string][]string `json:"outputs"`
	Failures     map[string]string   `json:"failures"`
}

func newTestApp(t *testing.T, extractor graph.Extractor) *mid.App {
	t.Helper()

	chunker, err := chunk.NewChunker(chunk.Params{MaxTokens: 1000, Counter: chunk.ApproxCounter{}})
	require.NoError(t, err)
	client, err := graph.NewGraphClient(graph.NewGraphClientParams{Chunker: chunker, Extractor: extractor})
	require.NoError(t, err)

	return &mid.App{
		Graph:     client,
		Metrics:   metrics.New(),
		OutputDir: t.TempDir(),
		BaseName:  export.DefaultBaseName,
		Targets:   []export.Target{export.TargetJSON, export.TargetGML},
	}
}

var aliceExtractor = graph.ExtractorFunc(func(context.Context, string) (common.Fragment, error) {
	return common.Fragment{
		Nodes: []common.Node{{ID: "Alice", Type: "Person"}, {ID: "Acme", Type: "Organization"}},
		Edges: []common.Edge{
			{Source: "Alice", Target: "Acme", Type: "WORKS_FOR"},
			{Source: "Alice", Target: "Bob", Type: "KNOWS"},
		},
	}, nil
})

func do(e *echo.Echo, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := NewServer(NewServerParams{App: newTestApp(t, aliceExtractor)})
	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCreateGraph(t *testing.T) {
	app := newTestApp(t, aliceExtractor)
	e := NewServer(NewServerParams{App: app})

	rec := do(e, http.MethodPost, "/api/graphs", `{"text": "Alice works for Acme."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res graphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Nodes)
	assert.Equal(t, 1, res.Edges)
	assert.Equal(t, 1, res.DroppedEdges)
	assert.Empty(t, res.Failures)
	assert.Equal(t, []string{filepath.Join(app.OutputDir, res.RunID, "knowledge_graph.json")}, res.Outputs["json"])
	assert.Contains(t, res.Outputs, "gml")

	rec = do(e, http.MethodGet, "/api/graphs/"+res.RunID+"/knowledge_graph.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	g, err := export.ReadJSON(rec.Body)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)

	rec = do(e, http.MethodGet, "/api/graphs/"+res.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "knowledge_graph.gml")

	rec = do(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `textgraph_runs_total{status="success"} 1`)
	assert.Contains(t, rec.Body.String(), "textgraph_chunks_processed_total 1")
}

func TestCreateGraphTargetsAndBaseName(t *testing.T) {
	app := newTestApp(t, aliceExtractor)
	e := NewServer(NewServerParams{App: app})

	rec := do(e, http.MethodPost, "/api/graphs", `{"text": "Alice.", "base_name": "team", "targets": ["csv"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res graphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Outputs, 1)
	assert.Len(t, res.Outputs["csv"], 2)
	assert.FileExists(t, filepath.Join(app.OutputDir, res.RunID, "team_nodes.csv"))
}

func TestCreateGraphInvalidBody(t *testing.T) {
	e := NewServer(NewServerParams{App: newTestApp(t, aliceExtractor)})

	tests := map[string]string{
		"missing text":   `{"targets": ["json"]}`,
		"malformed":      `{"text": `,
		"unknown target": `{"text": "x", "targets": ["pdf"]}`,
		"bad base name":  `{"text": "x", "base_name": "../escape"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/graphs", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateGraphExtractionFailure(t *testing.T) {
	failing := graph.ExtractorFunc(func(context.Context, string) (common.Fragment, error) {
		return common.Fragment{}, errors.New("model unavailable")
	})
	app := newTestApp(t, failing)
	e := NewServer(NewServerParams{App: app})

	rec := do(e, http.MethodPost, "/api/graphs", `{"text": "Alice."}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var res graphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Error generating knowledge graph: extraction failed on chunk 1/1: model unavailable", res.Message)

	entries, err := os.ReadDir(app.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateGraphStream(t *testing.T) {
	e := NewServer(NewServerParams{App: newTestApp(t, aliceExtractor)})

	rec := do(e, http.MethodPost, "/api/graphs/stream", `{"text": "Alice works for Acme."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	body := rec.Body.String()
	assert.Equal(t, 5, strings.Count(body, "event: progress\n"))
	assert.Contains(t, body, `"percent":100`)
	assert.Contains(t, body, `"message":"Processing chunk 1/1..."`)
	assert.Contains(t, body, `"message":"Graph generation complete!"`)
	assert.True(t, strings.HasSuffix(body, "\n\n"))
	last := body[strings.LastIndex(body, "event: "):]
	assert.True(t, strings.HasPrefix(last, "event: result\n"), last)
	assert.Contains(t, last, `"nodes":2`)
}

func TestCreateGraphStreamFailure(t *testing.T) {
	failing := graph.ExtractorFunc(func(context.Context, string) (common.Fragment, error) {
		return common.Fragment{}, errors.New("model unavailable")
	})
	e := NewServer(NewServerParams{App: newTestApp(t, failing)})

	rec := do(e, http.MethodPost, "/api/graphs/stream", `{"text": "Alice."}`)
	body := rec.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, "Error generating knowledge graph")
	assert.NotContains(t, body, "event: result")
}

func TestGetGraphFileValidation(t *testing.T) {
	e := NewServer(NewServerParams{App: newTestApp(t, aliceExtractor)})

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/api/graphs/run/.hidden", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/graphs/run/knowledge_graph.json", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/graphs/missing", "").Code)
}

func TestAPIKey(t *testing.T) {
	app := newTestApp(t, aliceExtractor)
	app.APIKey = "secret"
	e := NewServer(NewServerParams{App: app})

	body := `{"text": "Alice."}`
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/api/graphs", body).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/api/graphs", body, "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/graphs", body, "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/graphs", body, "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "").Code)
}
