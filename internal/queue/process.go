package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/textgraph/internal/metrics"
	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/loader"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"
)

// ErrInvalidJob marks messages that can never succeed. They are
// dead-lettered without retries.
var ErrInvalidJob = errors.New("invalid graph job")

// GraphGenerator runs the pipeline. *graph.GraphClient satisfies it.
type GraphGenerator interface {
	Generate(ctx context.Context, req graph.GenerateRequest) (*graph.Result, error)
}

// Processor turns job messages into graphs.
//
// NewExporter returns the exporter of one run. Metrics is optional.
type Processor struct {
	Graph          GraphGenerator
	Loader         loader.TextLoader
	NewExporter    func(runID string, baseName string) graph.GraphExporter
	DefaultTargets []export.Target
	Metrics        *metrics.Metrics
}

// ProcessGraphMessage runs the job in body. The returned result is
// meaningful whenever the job could be decoded, also on failure.
func (p *Processor) ProcessGraphMessage(ctx context.Context, body []byte) (GraphResultMsg, error) {
	var data GraphJobMsg
	if err := json.Unmarshal(body, &data); err != nil {
		return GraphResultMsg{}, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if strings.TrimSpace(data.Source) == "" || data.Source == loader.StdinSource {
		return GraphResultMsg{}, fmt.Errorf("%w: source is required", ErrInvalidJob)
	}

	targets := p.DefaultTargets
	if len(data.Targets) > 0 {
		parsed, err := export.ParseTargets(data.Targets)
		if err != nil {
			return GraphResultMsg{}, fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
		targets = parsed
	}

	runID := data.RunID
	if runID == "" {
		id, err := graph.NewRunID()
		if err != nil {
			return GraphResultMsg{}, err
		}
		runID = id
	}
	result := GraphResultMsg{RunID: runID, Source: data.Source}

	text, err := p.Loader.Load(ctx, data.Source)
	if err != nil {
		err = fmt.Errorf("failed to load %s: %w", data.Source, err)
		result.Error = err.Error()
		return result, err
	}

	var observer graph.ProgressObserver = graph.ProgressFunc(func(ev graph.ProgressEvent) {
		logger.Debug("[Queue] Progress", "run_id", runID, "message", util.ProgressLine(ev.Message, ev.Remaining))
	})
	if p.Metrics != nil {
		observer = graph.MultiObserver(p.Metrics.Observer(), observer)
	}

	res, err := p.Graph.Generate(ctx, graph.GenerateRequest{
		RunID:    runID,
		Text:     string(text),
		Targets:  targets,
		Exporter: p.NewExporter(runID, data.BaseName),
		Observer: observer,
	})
	if p.Metrics != nil {
		p.Metrics.RecordRun(res, err)
	}
	if err != nil {
		result.Error = "Error generating knowledge graph: " + err.Error()
		return result, err
	}

	result.Nodes = len(res.Graph.Nodes)
	result.Edges = len(res.Graph.Edges)
	result.DroppedEdges = res.DroppedEdges
	if res.Export != nil {
		result.Outputs = res.Export.Outputs
		result.Failures = res.Export.Failures
	}
	return result, nil
}
