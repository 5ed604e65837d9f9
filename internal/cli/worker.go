package cli

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/OFFIS-RIT/textgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/textgraph/internal/config"
	"github.com/OFFIS-RIT/textgraph/internal/metrics"
	"github.com/OFFIS-RIT/textgraph/internal/queue"
	"github.com/OFFIS-RIT/textgraph/pkg/ai"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWorkerCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process graph jobs from RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.loadConfig(cmd, "worker"); err != nil {
				return err
			}
			return RunWorker(cmd.Context(), e.cfg)
		},
	}

	addExportFlags(cmd.Flags())
	return cmd
}

// newProcessor builds the job processor. Artifacts of a run go to
// <output_dir>/<run-id>/ and, with a bucket configured, below
// <prefix>/<run-id>.
func newProcessor(ctx context.Context, cfg *config.Config, client *graph.GraphClient, m *metrics.Metrics) *queue.Processor {
	s3Client, err := bootstrap.NewS3Client(ctx, cfg)
	if err != nil {
		logger.Warn("[Worker] S3 unavailable", "err", err)
	}
	uploader := bootstrap.NewUploader(cfg, s3Client)

	return &queue.Processor{
		Graph:  client,
		Loader: bootstrap.NewResolver(cfg, s3Client, nil),
		NewExporter: func(runID string, baseName string) graph.GraphExporter {
			if baseName == "" {
				baseName = cfg.Export.BaseName
			}
			return export.NewExporter(export.Params{
				OutputDir:    filepath.Join(cfg.Export.OutputDir, runID),
				BaseName:     baseName,
				Uploader:     uploader,
				UploadPrefix: path.Join(cfg.Export.S3Prefix, runID),
			})
		},
		DefaultTargets: cfg.Targets(),
		Metrics:        m,
	}
}

func logAIMetrics(client ai.GraphAIClient) {
	m := client.GetMetrics()
	aiDuration := time.Duration(m.DurationMs) * time.Millisecond
	aiHours := int(aiDuration.Hours())
	aiMinutes := int(aiDuration.Minutes()) % 60
	aiSeconds := int(aiDuration.Seconds()) % 60
	logger.Info(
		"[Worker] AI Metrics",
		"requests", m.Requests,
		"input_tokens", m.InputTokens,
		"output_tokens", m.OutputTokens,
		"total_tokens", m.TotalTokens,
		"duration", fmt.Sprintf("%02d:%02d:%02d", aiHours, aiMinutes, aiSeconds),
	)
	client.ResetMetrics()
}

// RunWorker consumes graph_queue until ctx is done or the connection to
// the broker is lost.
func RunWorker(ctx context.Context, cfg *config.Config) error {
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

	conn, err := queue.Init(cfg.RabbitMQ.URL())
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.GraphQueue}); err != nil {
		return err
	}

	// A separate consumer channel with prefetch 1 delivers one job at a time.
	consumerCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := consumerCh.Consume(
		queue.GraphQueue,
		queue.GraphQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", queue.GraphQueue, err)
	}

	w := &queue.Worker{
		Processor: newProcessor(ctx, cfg, client, metrics.New()),
		Channel:   ch,
		AfterMessage: func() {
			logAIMetrics(aiClient)
			logger.Info("[Worker] Waiting for next message")
		},
	}

	closed := conn.NotifyClose(make(chan *amqp091.Error, 1))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.Run(gctx, msgs)
		if gctx.Err() == nil {
			return errors.New("delivery channel closed")
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return fmt.Errorf("connection to RabbitMQ lost: %w", amqpErr)
			}
			return nil
		}
	})

	err = g.Wait()
	logger.Info("[Worker] Shutdown complete")
	return err
}
