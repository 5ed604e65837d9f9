package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"
)

// Driver feeds chunks to an Extractor one at a time and reports progress.
type Driver struct {
	now func() time.Time
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithClock replaces the wall clock used to time extraction calls.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) {
		d.now = now
	}
}

// NewDriver returns a Driver timing calls with time.Now unless overridden.
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ExtractAll runs extractor over chunks with a default Driver.
func ExtractAll(
	ctx context.Context,
	extractor Extractor,
	chunks []common.Chunk,
	observer ProgressObserver,
) ([]common.Fragment, error) {
	return NewDriver().ExtractAll(ctx, extractor, chunks, observer)
}

// ExtractAll extracts one fragment per chunk, strictly in order and with
// a single call in flight.
//
// Two events are emitted per chunk: before the call with Current i-1 and
// after it with Current i. The time estimate is the average duration of
// the completed calls times the number of chunks left.
//
// The first failing chunk aborts the run. The error is an *ExtractionError
// and no fragments are returned.
func (d *Driver) ExtractAll(
	ctx context.Context,
	extractor Extractor,
	chunks []common.Chunk,
	observer ProgressObserver,
) ([]common.Fragment, error) {
	total := len(chunks)
	fragments := make([]common.Fragment, 0, total)

	var elapsed time.Duration
	for i, chunk := range chunks {
		idx := i + 1

		emit(observer, ProgressEvent{
			Current:   i,
			Total:     total,
			Message:   fmt.Sprintf("Processing chunk %d/%d...", idx, total),
			Remaining: estimate(elapsed, i, total-i),
		})

		start := d.now()
		fragment, err := extractor.Extract(ctx, chunk.Text)
		took := d.now().Sub(start)
		if err != nil {
			logger.Error("[Graph] Extraction failed", "chunk", idx, "total", total, "err", err)
			return nil, &ExtractionError{Index: idx, Total: total, Err: err}
		}
		elapsed += took

		fragments = append(fragments, fragment)
		logger.Debug(
			"[Graph] Chunk extracted",
			"chunk", idx,
			"total", total,
			"nodes", len(fragment.Nodes),
			"edges", len(fragment.Edges),
			"duration", took,
		)

		emit(observer, ProgressEvent{
			Current:   idx,
			Total:     total,
			Message:   fmt.Sprintf("Chunk %d/%d complete (%.2fs)", idx, total, took.Seconds()),
			Remaining: estimate(elapsed, idx, total-idx),
		})
	}

	return fragments, nil
}

// estimate returns nil before anything completed, else the average
// duration of the completed calls times remaining.
func estimate(elapsed time.Duration, completed int, remaining int) *float64 {
	if completed == 0 {
		return nil
	}
	avg := elapsed.Seconds() / float64(completed)
	est := avg * float64(remaining)
	return &est
}
