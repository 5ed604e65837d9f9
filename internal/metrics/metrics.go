// Package metrics exposes Prometheus metrics of graph generation runs.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/OFFIS-RIT/textgraph/pkg/graph"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "textgraph"

// Metrics holds the collectors of one registry.
type Metrics struct {
	// RunsTotal counts finished runs by status (success, chunking_error,
	// extraction_error, error).
	RunsTotal *prometheus.CounterVec
	// ChunksProcessed counts extracted chunks.
	ChunksProcessed prometheus.Counter
	// DroppedEdges counts edges discarded while merging.
	DroppedEdges prometheus.Counter
	// ExportFailures counts failed export targets by target.
	ExportFailures *prometheus.CounterVec
	// ChunkSeconds observes the duration of single extraction calls.
	ChunkSeconds prometheus.Histogram

	registry *prometheus.Registry
	now      func() time.Time
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished graph generation runs by status.",
		}, []string{"status"}),
		ChunksProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_processed_total",
			Help:      "Chunks sent through extraction.",
		}),
		DroppedEdges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_edges_total",
			Help:      "Edges dropped during merging because an endpoint was unknown.",
		}),
		ExportFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_failures_total",
			Help:      "Failed export targets.",
		}, []string{"target"}),
		ChunkSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_extraction_seconds",
			Help:      "Duration of one extraction call.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
		registry: reg,
		now:      time.Now,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observer returns a progress observer for one run that counts chunks and
// times extraction calls. A chunk is complete when Current advances; its
// duration is the time since the previous event.
func (m *Metrics) Observer() graph.ProgressObserver {
	return &runObserver{metrics: m}
}

type runObserver struct {
	metrics *Metrics

	mu      sync.Mutex
	last    time.Time
	current int
	started bool
}

func (o *runObserver) OnProgress(ev graph.ProgressEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.metrics.now()
	if o.started && ev.Current > o.current {
		o.metrics.ChunksProcessed.Add(float64(ev.Current - o.current))
		o.metrics.ChunkSeconds.Observe(now.Sub(o.last).Seconds())
	}
	o.started = true
	o.current = ev.Current
	o.last = now
}

// RecordRun counts the outcome of a run.
func (m *Metrics) RecordRun(res *graph.Result, err error) {
	var chunkingErr *graph.ChunkingError
	var extractionErr *graph.ExtractionError
	switch {
	case err == nil:
		m.RunsTotal.WithLabelValues("success").Inc()
	case errors.As(err, &chunkingErr):
		m.RunsTotal.WithLabelValues("chunking_error").Inc()
	case errors.As(err, &extractionErr):
		m.RunsTotal.WithLabelValues("extraction_error").Inc()
	default:
		m.RunsTotal.WithLabelValues("error").Inc()
	}

	if res == nil {
		return
	}
	m.DroppedEdges.Add(float64(res.DroppedEdges))
	if res.Export != nil {
		for target := range res.Export.Failures {
			m.ExportFailures.WithLabelValues(string(target)).Inc()
		}
	}
}
