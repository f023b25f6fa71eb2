package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics holds the pipeline runtime's Prometheus collectors: how
// long each routing zone's period takes, how often a zone misses its
// real-time deadline, how much CPU headroom remains, which ramps are
// currently active, and how long command dispatch takes. Collectors are
// registered on the registry passed to the constructor, and a
// registration failure is returned as an error.
type PipelineMetrics struct {
	registry prometheus.Registerer

	periodDuration  *prometheus.HistogramVec
	deadlineMisses  *prometheus.CounterVec
	cpuHeadroom     prometheus.Gauge
	rampActive      *prometheus.GaugeVec
	dispatchLatency *prometheus.HistogramVec

	operationsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline runtime's collectors against
// registry and returns the bound PipelineMetrics.
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		registry: registry,
		periodDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rtpipeline",
			Subsystem: "scheduler",
			Name:      "period_duration_seconds",
			Help:      "Wall-clock time to process one routing zone's period.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"zone"}),
		deadlineMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtpipeline",
			Subsystem: "scheduler",
			Name:      "deadline_misses_total",
			Help:      "Count of periods that exceeded the real-time deadline.",
		}, []string{"zone"}),
		cpuHeadroom: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtpipeline",
			Subsystem: "host",
			Name:      "cpu_headroom_percent",
			Help:      "Percentage of CPU capacity not in use, as last sampled by the health monitor.",
		}),
		rampActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rtpipeline",
			Subsystem: "modules",
			Name:      "ramp_active",
			Help:      "1 if a module's named ramp is currently in progress, else 0.",
		}, []string{"module", "param"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rtpipeline",
			Subsystem: "dispatch",
			Name:      "command_latency_seconds",
			Help:      "Time to process one command through the dispatcher.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module", "cmd"}),
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtpipeline",
			Name:      "operations_total",
			Help:      "Generic operation outcome counter, keyed by operation and status.",
		}, []string{"operation", "status"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtpipeline",
			Name:      "errors_total",
			Help:      "Generic error counter, keyed by operation and error type.",
		}, []string{"operation", "error_type"}),
	}

	collectors := []prometheus.Collector{
		m.periodDuration, m.deadlineMisses, m.cpuHeadroom,
		m.rampActive, m.dispatchLatency, m.operationsTotal, m.errorsTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordPeriod records how long zoneID's period took to process.
func (m *PipelineMetrics) RecordPeriod(zoneID string, elapsed time.Duration) {
	m.periodDuration.WithLabelValues(zoneID).Observe(elapsed.Seconds())
}

// RecordDeadlineMiss implements health.DeadlineRecorder.
func (m *PipelineMetrics) RecordDeadlineMiss(zoneID string, overrun time.Duration) {
	m.deadlineMisses.WithLabelValues(zoneID).Inc()
}

// RecordCPUHeadroom implements health.DeadlineRecorder.
func (m *PipelineMetrics) RecordCPUHeadroom(percent float64) {
	m.cpuHeadroom.Set(percent)
}

// SetRampActive records whether module's named ramp parameter is
// currently in progress.
func (m *PipelineMetrics) SetRampActive(module, param string, active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	m.rampActive.WithLabelValues(module, param).Set(v)
}

// RecordDispatch records how long a command took to process for module.
func (m *PipelineMetrics) RecordDispatch(module, cmd string, elapsed time.Duration) {
	m.dispatchLatency.WithLabelValues(module, cmd).Observe(elapsed.Seconds())
}

// RecordOperation implements Recorder.
func (m *PipelineMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder, recording seconds against the
// dispatch-latency histogram under a synthetic "generic" command label.
func (m *PipelineMetrics) RecordDuration(operation string, seconds float64) {
	m.dispatchLatency.WithLabelValues(operation, "generic").Observe(seconds)
}

// RecordError implements Recorder.
func (m *PipelineMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}
