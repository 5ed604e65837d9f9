package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/chunk"
	"github.com/OFFIS-RIT/textgraph/pkg/common"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/loader"
)

var aliceExtractor = graph.ExtractorFunc(func(context.Context, string) (common.Fragment, error) {
	return common.Fragment{
		Nodes: []common.Node{{ID: "Alice", Type: "Person"}, {ID: "Acme", Type: "Organization"}},
		Edges: []common.Edge{
			{Source: "Alice", Target: "Acme", Type: "WORKS_FOR"},
			{Source: "Alice", Target: "Bob", Type: "KNOWS"},
		},
	}, nil
})

func newGraphClient(t *testing.T, extractor graph.Extractor) *graph.GraphClient {
	t.Helper()
	chunker, err := chunk.NewChunker(chunk.Params{MaxTokens: 1000, Counter: chunk.ApproxCounter{}})
	require.NoError(t, err)
	client, err := graph.NewGraphClient(graph.NewGraphClientParams{Chunker: chunker, Extractor: extractor})
	require.NoError(t, err)
	return client
}

func TestProgressPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)

	remaining := 65.0
	p.OnProgress(graph.ProgressEvent{Current: 1, Total: 3, Message: "Processing chunk 2/3...", Remaining: &remaining})
	p.OnProgress(graph.ProgressEvent{Current: 3, Total: 3, Message: "Graph generation complete!"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, util.ProgressLine("Processing chunk 2/3...", &remaining), lines[0])
	assert.Equal(t, "Processing chunk 2/3... (Est. 1m 5s remaining)", lines[0])
	assert.Equal(t, "Graph generation complete!", lines[1])
}

func TestGenerateFromSource(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	e := &env{stdout: &out}

	res, err := generate(context.Background(), e, generateParams{
		Graph: newGraphClient(t, aliceExtractor),
		Loader: loader.TextLoaderFunc(func(_ context.Context, source string) ([]byte, error) {
			assert.Equal(t, "notes.txt", source)
			return []byte("Alice works for Acme."), nil
		}),
		Exporter: export.NewExporter(export.Params{OutputDir: dir, BaseName: "kg"}),
		RunID:    "run1",
		Source:   "notes.txt",
		Targets:  []export.Target{export.TargetJSON},
	})
	require.NoError(t, err)
	assert.Equal(t, "run1", res.RunID)
	assert.FileExists(t, filepath.Join(dir, "kg.json"))

	printed := out.String()
	assert.Contains(t, printed, "Processing chunk 1/1...")
	assert.Contains(t, printed, "Graph generation complete!")

	out.Reset()
	printResult(&out, res)
	assert.Contains(t, out.String(), "Knowledge graph: 2 nodes, 1 edges (1 edges dropped)")
	assert.Contains(t, out.String(), filepath.Join(dir, "kg.json"))
}

func TestGenerateFromText(t *testing.T) {
	var seen string
	extractor := graph.ExtractorFunc(func(_ context.Context, text string) (common.Fragment, error) {
		seen = text
		return common.Fragment{}, nil
	})

	_, err := generate(context.Background(), &env{stdout: &bytes.Buffer{}}, generateParams{
		Graph: newGraphClient(t, extractor),
		Text:  "inline text",
	})
	require.NoError(t, err)
	assert.Equal(t, "inline text", seen)
}

func TestGenerateErrors(t *testing.T) {
	_, err := generate(context.Background(), &env{stdout: &bytes.Buffer{}}, generateParams{
		Graph: newGraphClient(t, aliceExtractor),
		Loader: loader.TextLoaderFunc(func(context.Context, string) ([]byte, error) {
			return nil, os.ErrNotExist
		}),
		Source: "missing.txt",
	})
	var genErr *generateError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	failing := graph.ExtractorFunc(func(context.Context, string) (common.Fragment, error) {
		return common.Fragment{}, errors.New("model unavailable")
	})
	_, err = generate(context.Background(), &env{stdout: &bytes.Buffer{}}, generateParams{
		Graph: newGraphClient(t, failing),
		Text:  "some text",
	})
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "extraction failed on chunk 1/1: model unavailable", genErr.Error())
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecuteGenerateWithoutInput(t *testing.T) {
	code, _, stderr := execute(t, "generate")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error generating knowledge graph: "+errNoInput.Error()+"\n", stderr)
}

func TestExecuteRender(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.json")
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, export.WriteJSON(f, common.Graph{
		Nodes: []common.Node{{ID: "Alice", Type: "Person"}, {ID: "Acme", Type: "Organization"}},
		Edges: []common.Edge{{Source: "Alice", Target: "Acme", Type: "WORKS_FOR"}},
	}))
	require.NoError(t, f.Close())

	out := t.TempDir()
	code, stdout, stderr := execute(t, "render", src, "--targets", "gml,csv", "--out", out, "--base", "g")
	require.Equal(t, 0, code, stderr)

	assert.FileExists(t, filepath.Join(out, "g.gml"))
	assert.FileExists(t, filepath.Join(out, "g_nodes.csv"))
	assert.FileExists(t, filepath.Join(out, "g_edges.csv"))
	assert.NoFileExists(t, filepath.Join(out, "g.json"))
	assert.Contains(t, stdout, filepath.Join(out, "g.gml"))

	g, err := export.Load(filepath.Join(out, "g.gml"))
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestExecuteRenderErrors(t *testing.T) {
	code, _, stderr := execute(t, "render", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: failed to load graph")

	code, _, stderr = execute(t, "render", "in.json", "--targets", "pdf")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: invalid config")

	code, _, _ = execute(t, "render")
	assert.Equal(t, 1, code)
}
