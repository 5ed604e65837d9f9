package cli

import (
	"context"

	"github.com/OFFIS-RIT/textgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/textgraph/internal/config"
	"github.com/OFFIS-RIT/textgraph/internal/metrics"
	"github.com/OFFIS-RIT/textgraph/internal/server"
	"github.com/OFFIS-RIT/textgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"github.com/spf13/cobra"
)

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.loadConfig(cmd, "server"); err != nil {
				return err
			}
			return RunServer(cmd.Context(), e.cfg)
		},
	}

	cmd.Flags().String("port", "", "listen port (default 8080)")
	addExportFlags(cmd.Flags())
	return cmd
}

// RunServer serves the HTTP API until ctx is done.
func RunServer(ctx context.Context, cfg *config.Config) error {
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

	app := &middleware.App{
		Graph:        client,
		Metrics:      metrics.New(),
		OutputDir:    cfg.Export.OutputDir,
		BaseName:     cfg.Export.BaseName,
		Targets:      cfg.Targets(),
		UploadPrefix: cfg.Export.S3Prefix,
		APIKey:       cfg.Server.APIKey,
	}
	if cfg.Export.S3Bucket != "" {
		s3Client, err := bootstrap.NewS3Client(ctx, cfg)
		if err != nil {
			return err
		}
		app.Uploader = bootstrap.NewUploader(cfg, s3Client)
	}
	if app.APIKey == "" {
		logger.Warn("[Server] No API key configured, /api is unauthenticated")
	}

	e := server.NewServer(server.NewServerParams{
		App:       app,
		BodyLimit: cfg.Server.BodyLimit,
	})
	return server.Start(ctx, e, cfg.Server.Port)
}
