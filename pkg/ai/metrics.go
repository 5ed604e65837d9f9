package ai

import (
	"math"
	"sync"
)

// MetricsTracker accumulates ModelMetrics of an adapter. Adapters embed it
// to satisfy the metrics half of GraphAIClient.
type MetricsTracker struct {
	metricsLock sync.Mutex
	metrics     ModelMetrics
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (t *MetricsTracker) ResetMetrics() {
	t.metricsLock.Lock()
	t.metrics = ModelMetrics{}
	t.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since the last reset.
func (t *MetricsTracker) GetMetrics() ModelMetrics {
	t.metricsLock.Lock()
	defer t.metricsLock.Unlock()
	return t.metrics
}

// AddMetrics adds the usage of one request.
func (t *MetricsTracker) AddMetrics(m ModelMetrics) {
	t.metricsLock.Lock()
	defer t.metricsLock.Unlock()

	t.metrics.Requests++
	t.metrics.InputTokens += m.InputTokens
	t.metrics.OutputTokens += m.OutputTokens
	t.metrics.TotalTokens += m.TotalTokens
	t.metrics.DurationMs += m.DurationMs
	t.metrics.WallClockMs += m.WallClockMs

	if t.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(t.metrics.TotalTokens) * 1000.0) / float64(t.metrics.DurationMs)
		t.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}
