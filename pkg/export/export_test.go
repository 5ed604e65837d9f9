package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

func sampleGraph() common.Graph {
	return common.Graph{
		Nodes: []common.Node{
			{ID: "Alice", Type: "Person"},
			{ID: "Acme Corp", Type: "Organization"},
			{ID: "Berlin", Type: "Location"},
		},
		Edges: []common.Edge{
			{Source: "Alice", Target: "Acme Corp", Type: "WORKS_FOR"},
			{Source: "Acme Corp", Target: "Berlin", Type: "LOCATED_IN"},
		},
	}
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []Target
		wantErr bool
	}{
		{name: "comma list", in: []string{"json,gml"}, want: []Target{TargetJSON, TargetGML}},
		{name: "aliases", in: []string{"visual-render", "xml"}, want: []Target{TargetHTML, TargetGraphML}},
		{name: "dedup", in: []string{"json", "JSON", " json "}, want: []Target{TargetJSON}},
		{name: "all", in: []string{"all"}, want: AllTargets},
		{name: "empty", in: []string{""}, want: nil},
		{name: "unknown", in: []string{"pdf"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTargets(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteJSONSingleNode(t *testing.T) {
	var buf bytes.Buffer
	g := common.Graph{Nodes: []common.Node{{ID: "X", Type: "Person"}}}
	require.NoError(t, WriteJSON(&buf, g))

	assert.JSONEq(t, `{"nodes":[{"id":"X","type":"Person"}],"edges":[]}`, buf.String())
	assert.Contains(t, buf.String(), "\n  \"nodes\"")
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	g := sampleGraph()
	g.Nodes = append(g.Nodes, common.Node{ID: "Zoë <&>", Type: "Person"})
	require.NoError(t, WriteJSON(&buf, g))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestGraphMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	g := sampleGraph()
	require.NoError(t, WriteGraphML(&buf, g))

	out := buf.String()
	assert.Contains(t, out, `xmlns="http://graphml.graphdrawing.org/xmlns"`)
	assert.Contains(t, out, `edgedefault="directed"`)

	got, err := ReadGraphML(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestGMLIntegerIDsAndEscaping(t *testing.T) {
	var buf bytes.Buffer
	g := common.Graph{
		Nodes: []common.Node{
			{ID: `Say "hi" & go`, Type: "Quote"},
			{ID: "Zoë", Type: "Person"},
		},
		Edges: []common.Edge{{Source: "Zoë", Target: `Say "hi" & go`, Type: "SAID"}},
	}
	require.NoError(t, WriteGML(&buf, g))

	out := buf.String()
	assert.Contains(t, out, "id 0")
	assert.Contains(t, out, "id 1")
	assert.Contains(t, out, `label "Say &quot;hi&quot; &amp; go"`)
	assert.Contains(t, out, `label "Zo&#235;"`)
	assert.Contains(t, out, "source 1\n    target 0")

	got, err := ReadGML(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestWriteGMLRejectsDuplicateIDs(t *testing.T) {
	g := common.Graph{Nodes: []common.Node{{ID: "A"}, {ID: "A"}}}
	assert.Error(t, WriteGML(&bytes.Buffer{}, g))
}

func TestReadGMLWithoutLabels(t *testing.T) {
	in := `Creator "test"
graph [
  # comment
  directed 1
  node [ id 1 ]
  node [ id 2 label "Two" ]
  edge [ source 1 target 2 label "knows" ]
]`
	got, err := ReadGML(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []common.Node{{ID: "1"}, {ID: "Two"}}, got.Nodes)
	assert.Equal(t, []common.Edge{{Source: "1", Target: "Two", Type: "knows"}}, got.Edges)
}

func TestCSV(t *testing.T) {
	var nodes, edges bytes.Buffer
	g := sampleGraph()
	require.NoError(t, WriteNodesCSV(&nodes, g))
	require.NoError(t, WriteEdgesCSV(&edges, g))

	assert.Equal(t, "id,type\nAlice,Person\nAcme Corp,Organization\nBerlin,Location\n", nodes.String())
	assert.Equal(t, "source,target,type\nAlice,Acme Corp,WORKS_FOR\nAcme Corp,Berlin,LOCATED_IN\n", edges.String())
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := Summarize(sampleGraph(), now)

	assert.Equal(t, 3, s.Nodes)
	assert.Equal(t, 2, s.Edges)
	assert.Equal(t, []TypeCount{{"Location", 1}, {"Organization", 1}, {"Person", 1}}, s.NodeTypes)
	assert.Equal(t, []TypeCount{{"LOCATED_IN", 1}, {"WORKS_FOR", 1}}, s.RelationshipTypes)
	require.Len(t, s.TopNodes, 3)
	assert.Equal(t, NodeDegree{ID: "Acme Corp", Type: "Organization", Degree: 2}, s.TopNodes[0])
	assert.Equal(t, "Alice", s.TopNodes[1].ID)
	assert.Equal(t, "Berlin", s.TopNodes[2].ID)
	assert.Equal(t, now, s.GeneratedAt)
}

func TestExportWritesDefaultTargets(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(Params{OutputDir: dir})

	res := e.Export(context.Background(), sampleGraph(), nil)
	require.True(t, res.OK(), "failures: %v", res.Failures)

	for _, name := range []string{"knowledge_graph.json", "knowledge_graph.graphml", "knowledge_graph.gml", "knowledge_graph.html"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.Equal(t, []string{filepath.Join(dir, "knowledge_graph.json")}, res.Outputs[TargetJSON])
	require.NotNil(t, res.Render)
	assert.Equal(t, 3, res.Render.Nodes)
	assert.Equal(t, 2, res.Render.Edges)

	g, err := Load(filepath.Join(dir, "knowledge_graph.gml"))
	require.NoError(t, err)
	assert.Equal(t, sampleGraph(), g)
}

func TestExportIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(Params{OutputDir: dir, BaseName: "g"})

	// Duplicate ids cannot be expressed with integer GML ids.
	g := common.Graph{Nodes: []common.Node{{ID: "A", Type: "T"}, {ID: "A", Type: "U"}}}
	res := e.Export(context.Background(), g, []Target{TargetGML, TargetJSON, TargetCSV})

	assert.False(t, res.OK())
	assert.Contains(t, res.Failures, TargetGML)
	assert.NotContains(t, res.Outputs, TargetGML)
	assert.Len(t, res.Outputs[TargetJSON], 1)
	assert.Len(t, res.Outputs[TargetCSV], 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"g.json", "g_nodes.csv", "g_edges.csv"}, names)
}

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
	fail string
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.fail != "" && strings.HasSuffix(key, f.fail) {
		return "", errors.New("bucket unavailable")
	}
	return "s3://bucket/" + key, nil
}

func TestExportUploads(t *testing.T) {
	up := &fakeUploader{fail: ".gml"}
	e := NewExporter(Params{OutputDir: t.TempDir(), Uploader: up, UploadPrefix: "/runs/abc/"})

	res := e.Export(context.Background(), sampleGraph(), []Target{TargetJSON, TargetGML})

	assert.Equal(t, []string{"s3://bucket/runs/abc/knowledge_graph.json"}, res.Outputs[TargetJSON])
	assert.Contains(t, res.Failures[TargetGML], "bucket unavailable")

	gmlAttempts := 0
	for _, k := range up.keys {
		if k == "runs/abc/knowledge_graph.gml" {
			gmlAttempts++
		}
	}
	assert.Equal(t, uploadAttempts, gmlAttempts)
}

func TestExportSummaryUsesClock(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	e := NewExporter(Params{OutputDir: dir, Now: func() time.Time { return now }})

	res := e.Export(context.Background(), sampleGraph(), []Target{TargetSummary})
	require.True(t, res.OK())

	data, err := os.ReadFile(filepath.Join(dir, "knowledge_graph_summary.json"))
	require.NoError(t, err)
	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, now, s.GeneratedAt)
	assert.Equal(t, 3, s.Nodes)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		head string
		want Target
	}{
		{"a.json", "", TargetJSON},
		{"a.GraphML", "", TargetGraphML},
		{"a.gml", "", TargetGML},
		{"a", `  {"nodes":[]}`, TargetJSON},
		{"a", `<?xml version="1.0"?>`, TargetGraphML},
		{"a", "graph [", TargetGML},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path, []byte(tt.head))
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := DetectFormat("a.txt", []byte("hello"))
	assert.Error(t, err)
}
