package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/OFFIS-RIT/textgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/textgraph/internal/config"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/loader"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errNoInput = errors.New("no input: pass a file, URL, s3:// URI, - or --text")

func addExportFlags(flags *pflag.FlagSet) {
	flags.StringSlice("targets", nil, "export targets: html, json, graphml, gml, csv, summary (default html,json,graphml,gml)")
	flags.String("base", "", "base name of the exported files (default knowledge_graph)")
	flags.String("out", "", "output directory (default .)")
	flags.String("s3-bucket", "", "also upload the exported files to this bucket")
}

func newGenerateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [file|url|s3://bucket/key|-]",
		Short: "Extract a knowledge graph from text and export it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.loadConfig(cmd, "textgraph"); err != nil {
				return err
			}

			text, _ := cmd.Flags().GetString("text")
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			if source == "" && text == "" {
				return &generateError{err: errNoInput}
			}

			return runGenerate(cmd.Context(), e, source, text)
		},
	}

	flags := cmd.Flags()
	flags.String("text", "", "text to process instead of a source")
	flags.Int("max-tokens", 0, "token budget of one chunk (default 100000)")
	flags.Int("overlap", 0, "characters shared by neighbouring chunks (default 200)")
	flags.IntSlice("headings", nil, "markdown heading levels that start a section (default 1,2)")
	flags.String("encoding", "", "tokenizer model or encoding (default gpt-4)")
	flags.String("adapter", "", "AI adapter: openai, ollama or anthropic")
	flags.String("model", "", "extraction model")
	addExportFlags(flags)
	return cmd
}

// generator runs the pipeline. *graph.GraphClient satisfies it.
type generator interface {
	Generate(ctx context.Context, req graph.GenerateRequest) (*graph.Result, error)
}

func runGenerate(ctx context.Context, e *env, source string, text string) error {
	cfg := e.cfg

	aiClient, err := bootstrap.NewAIClient(cfg)
	if err != nil {
		return err
	}
	counter, err := bootstrap.NewCounter(cfg)
	if err != nil {
		return err
	}
	client, err := bootstrap.NewGraphClient(cfg, aiClient, counter)
	if err != nil {
		return err
	}

	s3Client, err := bootstrap.NewS3Client(ctx, cfg)
	if err != nil {
		logger.Warn("[CLI] S3 unavailable", "err", err)
	}

	runID, err := graph.NewRunID()
	if err != nil {
		return err
	}
	exporter := newExporter(cfg, bootstrap.NewUploader(cfg, s3Client), runID)

	res, err := generate(ctx, e, generateParams{
		Graph:    client,
		Loader:   bootstrap.NewResolver(cfg, s3Client, e.stdin),
		Exporter: exporter,
		RunID:    runID,
		Source:   source,
		Text:     text,
		Targets:  cfg.Targets(),
	})

	metrics := aiClient.GetMetrics()
	logger.Info(
		"[CLI] AI Metrics",
		"requests", metrics.Requests,
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"total_tokens", metrics.TotalTokens,
		"duration", time.Duration(metrics.DurationMs)*time.Millisecond,
	)
	if err != nil {
		return err
	}

	printResult(e.stdout, res)
	return nil
}

// newExporter writes into the configured directory. Uploads land below
// <prefix>/<runID>.
func newExporter(cfg *config.Config, uploader export.Uploader, runID string) *export.Exporter {
	return export.NewExporter(export.Params{
		OutputDir:    cfg.Export.OutputDir,
		BaseName:     cfg.Export.BaseName,
		Uploader:     uploader,
		UploadPrefix: path.Join(cfg.Export.S3Prefix, runID),
	})
}

type generateParams struct {
	Graph    generator
	Loader   loader.TextLoader
	Exporter graph.GraphExporter
	RunID    string
	Source   string
	Text     string
	Targets  []export.Target
}

// generate loads the input and runs the pipeline with progress printed to
// e.stdout. Every returned error is a generateError.
func generate(ctx context.Context, e *env, params generateParams) (*graph.Result, error) {
	text := params.Text
	if params.Source != "" {
		data, err := params.Loader.Load(ctx, params.Source)
		if err != nil {
			return nil, &generateError{err: fmt.Errorf("failed to load %s: %w", params.Source, err)}
		}
		text = string(data)
	}

	res, err := params.Graph.Generate(ctx, graph.GenerateRequest{
		RunID:    params.RunID,
		Text:     text,
		Targets:  params.Targets,
		Exporter: params.Exporter,
		Observer: newProgressPrinter(e.stdout),
	})
	if err != nil {
		return nil, &generateError{err: err}
	}
	return res, nil
}

func printResult(w io.Writer, res *graph.Result) {
	fmt.Fprintf(w, "Knowledge graph: %d nodes, %d edges", len(res.Graph.Nodes), len(res.Graph.Edges))
	if res.DroppedEdges > 0 {
		fmt.Fprintf(w, " (%d edges dropped)", res.DroppedEdges)
	}
	fmt.Fprintln(w)

	if res.Export == nil {
		return
	}
	printExport(w, *res.Export)
}

func printExport(w io.Writer, result export.Result) {
	for _, t := range sortedTargets(result.Outputs) {
		for _, location := range result.Outputs[t] {
			fmt.Fprintf(w, "  %-8s %s\n", t, location)
		}
	}
	failed := make(map[export.Target][]string, len(result.Failures))
	for t := range result.Failures {
		failed[t] = nil
	}
	for _, t := range sortedTargets(failed) {
		fmt.Fprintf(w, "  %-8s failed: %s\n", t, result.Failures[t])
	}
}

func sortedTargets(m map[export.Target][]string) []export.Target {
	out := make([]export.Target, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
