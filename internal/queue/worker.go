package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const publishAttempts = 3

// Worker consumes GraphQueue one message at a time and publishes a
// GraphResultMsg for every job that ends, successfully or not.
type Worker struct {
	Processor *Processor
	// Channel publishes results, retries and dead letters.
	Channel Channel
	// AfterMessage is called once per handled delivery.
	AfterMessage func()
}

// Handle processes a single delivery and settles it.
func (w *Worker) Handle(ctx context.Context, msg amqp091.Delivery) {
	startTime := time.Now()
	logger.Info("[Queue] Received message", "queue", GraphQueue)

	result, err := w.Processor.ProcessGraphMessage(ctx, msg.Body)
	final := err == nil || permanent(err) || retryCount(msg.Headers) >= MaxRetries

	if final && result.RunID != "" {
		if pubErr := w.publishResult(ctx, result); pubErr != nil {
			logger.Error("[Queue] Failed to publish result", "run_id", result.RunID, "err", pubErr)
		}
	}

	if err != nil {
		logger.Error("[Queue] Error processing message", "queue", GraphQueue, "err", err)
		HandleProcessingError(w.Channel, msg, GraphQueue, !permanent(err))
	} else {
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error("[Queue] Failed to ack message", "err", ackErr)
		}
		logger.Info("[Queue] Message processed successfully", "queue", GraphQueue, "run_id", result.RunID)
	}

	logger.Info("[Queue] Processing time", "duration", formatDuration(time.Since(startTime)))
	if w.AfterMessage != nil {
		w.AfterMessage()
	}
}

// permanent reports whether err ends the job without a redelivery. That is
// the case for invalid jobs and for any chunking or extraction failure.
func permanent(err error) bool {
	var chunkingErr *graph.ChunkingError
	var extractionErr *graph.ExtractionError
	return errors.Is(err, ErrInvalidJob) || errors.As(err, &chunkingErr) || errors.As(err, &extractionErr)
}

func (w *Worker) publishResult(ctx context.Context, result GraphResultMsg) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return util.RetryErrWithContext(ctx, publishAttempts, func(context.Context) error {
		return PublishFIFO(w.Channel, ResultQueue, data)
	})
}

// Run handles deliveries until ctx is done or the delivery channel closes.
func (w *Worker) Run(ctx context.Context, msgs <-chan amqp091.Delivery) {
	logger.Info("[Queue] Waiting for messages", "queue", GraphQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", GraphQueue)
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("[Queue] Message channel closed", "queue", GraphQueue)
				return
			}
			w.Handle(ctx, msg)
		}
	}
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
