// Package observability wires the pipeline runtime's Prometheus registry
// and exposes it through a process-global singleton, mirroring the
// teacher's InitMetrics/GetMetrics idiom (internal/audiocore/metrics.go)
// so components anywhere in the tree can record metrics without having
// the registry threaded through every constructor.
package observability

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartxaudio/rtpipeline/internal/logging"
	"github.com/smartxaudio/rtpipeline/internal/observability/metrics"
)

var (
	globalMetrics     atomic.Pointer[metrics.PipelineMetrics]
	globalMetricsOnce sync.Once
	metricsLogger     *slog.Logger
)

// NewMetrics builds a fresh PipelineMetrics against a new registry,
// without touching the process-global singleton. Used by tests and by
// InitMetrics itself.
func NewMetrics() (*metrics.PipelineMetrics, error) {
	return metrics.NewPipelineMetrics(prometheus.NewRegistry())
}

// InitMetrics installs m as the process-global metrics collector. Only
// the first call takes effect; later calls are ignored, matching the
// teacher's sync.Once-gated SetMetrics idiom.
func InitMetrics(m *metrics.PipelineMetrics) {
	globalMetricsOnce.Do(func() {
		metricsLogger = logging.ForService("observability")
		if metricsLogger == nil {
			metricsLogger = slog.Default()
		}
		metricsLogger = metricsLogger.With("component", "metrics")
		globalMetrics.Store(m)
		if m != nil {
			metricsLogger.Info("metrics collector initialized")
		} else {
			metricsLogger.Debug("metrics collector disabled")
		}
	})
}

// GetMetrics returns the process-global metrics collector, or nil if
// InitMetrics has not been called. Callers must handle a nil result
// (metrics are always optional).
func GetMetrics() *metrics.PipelineMetrics {
	return globalMetrics.Load()
}
