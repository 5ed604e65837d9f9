package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/textgraph/pkg/chunk"
	"github.com/OFFIS-RIT/textgraph/pkg/common"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// GraphExporter writes a finished graph to the requested targets.
type GraphExporter interface {
	Export(ctx context.Context, g common.Graph, targets []export.Target) export.Result
}

// GraphClient runs the text to knowledge graph pipeline: chunking,
// sequential extraction, merging and export.
//
// A GraphClient should be created using NewGraphClient. It holds no
// per-run state and may serve concurrent runs.
type GraphClient struct {
	chunker   *chunk.Chunker
	extractor Extractor
	driver    *Driver
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Driver is optional and defaults to NewDriver().
type NewGraphClientParams struct {
	Chunker   *chunk.Chunker
	Extractor Extractor
	Driver    *Driver
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	chunker, _ := chunk.NewChunker(chunk.Params{MaxTokens: 100000, Counter: counter})
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Chunker:   chunker,
//		Extractor: extractor,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Chunker == nil {
		return nil, errors.New("chunker is required")
	}
	if params.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	driver := params.Driver
	if driver == nil {
		driver = NewDriver()
	}

	return &GraphClient{
		chunker:   params.Chunker,
		extractor: params.Extractor,
		driver:    driver,
	}, nil
}

// GenerateRequest describes one run.
//
// RunID is generated when empty. A nil Exporter skips the export step and
// Observer may be nil.
type GenerateRequest struct {
	RunID    string
	Text     string
	Targets  []export.Target
	Exporter GraphExporter
	Observer ProgressObserver
}

// Result is the outcome of a successful run.
type Result struct {
	RunID        string
	Chunks       int
	Graph        common.Graph
	DroppedEdges int
	DroppedNodes int
	Export       *export.Result
	Duration     time.Duration
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate run id: %w", err)
	}
	return id, nil
}

// Generate builds a knowledge graph from req.Text.
//
// Chunking failures are returned as *ChunkingError and extraction failures
// as *ExtractionError; in both cases nothing is exported. Export failures
// never fail the run and are reported in Result.Export.
func (g *GraphClient) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	start := time.Now()

	runID := req.RunID
	if runID == "" {
		id, err := NewRunID()
		if err != nil {
			return nil, err
		}
		runID = id
	}

	chunks, err := g.chunker.Chunk(req.Text)
	if err != nil {
		return nil, &ChunkingError{Err: err}
	}

	tokens := 0
	for _, c := range chunks {
		tokens += c.Tokens
	}
	logger.Info("[Graph] Processing", "run_id", runID, "tokens", tokens, "chunks", len(chunks))

	fragments, err := g.driver.ExtractAll(ctx, g.extractor, chunks, req.Observer)
	if err != nil {
		return nil, err
	}

	total := len(chunks)
	emit(req.Observer, ProgressEvent{Current: total, Total: total, Message: "Merging graph...", Remaining: seconds(0)})

	merged := Merge(fragments)
	logger.Info(
		"[Graph] Graph merged",
		"run_id", runID,
		"nodes", len(merged.Graph.Nodes),
		"edges", len(merged.Graph.Edges),
		"dropped_edges", merged.DroppedEdges,
	)

	res := &Result{
		RunID:        runID,
		Chunks:       total,
		Graph:        merged.Graph,
		DroppedEdges: merged.DroppedEdges,
		DroppedNodes: merged.DroppedNodes,
	}

	if req.Exporter != nil {
		emit(req.Observer, ProgressEvent{Current: total, Total: total, Message: "Building graph visualization...", Remaining: seconds(0)})
		exported := req.Exporter.Export(ctx, merged.Graph, req.Targets)
		res.Export = &exported
	}

	res.Duration = time.Since(start)
	emit(req.Observer, ProgressEvent{Current: total, Total: total, Message: "Graph generation complete!", Remaining: seconds(0)})
	logger.Info("[Graph] Graph generation completed", "run_id", runID, "duration", res.Duration)

	return res, nil
}

func seconds(v float64) *float64 {
	return &v
}
