package cli

import (
	"fmt"

	"github.com/OFFIS-RIT/textgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"github.com/spf13/cobra"
)

func newRenderCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <graph.json|graph.graphml|graph.gml>",
		Short: "Export a previously generated graph file to other targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.loadConfig(cmd, "textgraph"); err != nil {
				return err
			}
			cfg := e.cfg

			g, err := export.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load graph: %w", err)
			}

			var uploader export.Uploader
			if cfg.Export.S3Bucket != "" {
				client, err := bootstrap.NewS3Client(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				uploader = bootstrap.NewUploader(cfg, client)
			}

			runID, err := graph.NewRunID()
			if err != nil {
				return err
			}
			logger.Debug("[CLI] Rendering graph", "file", args[0], "nodes", len(g.Nodes), "edges", len(g.Edges))

			res := newExporter(cfg, uploader, runID).Export(cmd.Context(), g, cfg.Targets())
			printExport(e.stdout, res)
			if !res.OK() {
				return fmt.Errorf("%d of the targets failed", len(res.Failures))
			}
			return nil
		},
	}

	addExportFlags(cmd.Flags())
	return cmd
}
