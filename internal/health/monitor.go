// Package health monitors whether the pipeline's real-time scheduling
// deadline is being met: each period must complete processing within
// periodFrames/sampleRate seconds, and the host CPU must retain enough
// headroom to keep doing so. Adapted from the teacher's threshold-based
// resource monitor (internal/monitor/system_monitor.go's hysteresis-gated
// alert states) and its audiocore health-monitor poller shape, generalized
// from "is this audio source silent" to "is this pipeline keeping up."
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/smartxaudio/rtpipeline/internal/logging"
)

// DeadlineRecorder receives deadline-miss notifications, satisfied by
// internal/observability/metrics's collector. Kept as an interface rather
// than a direct import so health has no dependency on the metrics
// package's concrete type (mirrors the teacher's "if metrics != nil"
// optionality, made explicit at the type level).
type DeadlineRecorder interface {
	RecordDeadlineMiss(zoneID string, overrun time.Duration)
	RecordCPUHeadroom(percent float64)
}

// alertState tracks hysteresis for the CPU-headroom check, the same
// shape as the teacher's AlertState (InWarning/InCritical plus a last
// value), so a single noisy sample doesn't flap the alert.
type alertState struct {
	inWarning  bool
	inCritical bool
	lastValue  float64
}

// Config configures a Monitor.
type Config struct {
	PeriodFrames int
	SampleRate   int

	// CheckInterval is how often the CPU-headroom poller samples usage.
	CheckInterval time.Duration

	// WarnCPUPercent / CriticalCPUPercent gate the hysteresis alert;
	// zero disables the corresponding threshold.
	WarnCPUPercent     float64
	CriticalCPUPercent float64

	Recorder DeadlineRecorder
}

// Monitor watches per-period deadlines and host CPU headroom for one
// pipeline's routing zones.
type Monitor struct {
	deadline      time.Duration
	checkInterval time.Duration
	warnPercent   float64
	critPercent   float64
	recorder      DeadlineRecorder

	mu            sync.Mutex
	cpuState      alertState
	consecutive   map[string]int
	totalMisses   map[string]int

	logger *slog.Logger
}

// NewMonitor builds a Monitor from cfg. periodFrames/sampleRate determine
// the real-time deadline each RecordPeriod call is checked against.
func NewMonitor(cfg Config) (*Monitor, error) {
	if cfg.PeriodFrames <= 0 || cfg.SampleRate <= 0 {
		return nil, invalidArg("health: periodFrames and sampleRate must be positive")
	}
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Duration(float64(cfg.PeriodFrames) / float64(cfg.SampleRate) * float64(time.Second))
	return &Monitor{
		deadline:      deadline,
		checkInterval: interval,
		warnPercent:   cfg.WarnCPUPercent,
		critPercent:   cfg.CriticalCPUPercent,
		recorder:      cfg.Recorder,
		consecutive:   make(map[string]int),
		totalMisses:   make(map[string]int),
		logger:        serviceLogger(),
	}, nil
}

func serviceLogger() *slog.Logger {
	logger := logging.ForService("health")
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", "monitor")
}

// Deadline reports the per-period real-time budget this monitor checks
// RecordPeriod calls against.
func (m *Monitor) Deadline() time.Duration { return m.deadline }

// RecordPeriod reports how long one routing zone's period took to
// process. A period over deadline counts as a deadline miss; three
// consecutive misses escalate from a warning log to an error log,
// mirroring the teacher's silence-timeout escalation.
func (m *Monitor) RecordPeriod(zoneID string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elapsed <= m.deadline {
		m.consecutive[zoneID] = 0
		return
	}

	overrun := elapsed - m.deadline
	m.consecutive[zoneID]++
	m.totalMisses[zoneID]++

	if m.recorder != nil {
		m.recorder.RecordDeadlineMiss(zoneID, overrun)
	}

	if m.consecutive[zoneID] >= 3 {
		m.logger.Error("zone missing real-time deadline repeatedly",
			"zone", zoneID, "consecutive_misses", m.consecutive[zoneID],
			"overrun", overrun, "deadline", m.deadline)
	} else {
		m.logger.Warn("zone period exceeded deadline",
			"zone", zoneID, "overrun", overrun, "deadline", m.deadline)
	}
}

// MissCount reports the total deadline misses recorded for zoneID since
// this monitor was created.
func (m *Monitor) MissCount(zoneID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalMisses[zoneID]
}

// Start runs the CPU-headroom poller until ctx is canceled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.checkCPU()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) checkCPU() {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		m.logger.Warn("cpu sample failed", "error", err)
		return
	}
	percent := percents[0]

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuState.lastValue = percent
	if m.recorder != nil {
		m.recorder.RecordCPUHeadroom(100 - percent)
	}

	switch {
	case m.critPercent > 0 && percent >= m.critPercent:
		if !m.cpuState.inCritical {
			m.logger.Error("cpu usage critical, real-time headroom at risk", "cpu_percent", percent)
		}
		m.cpuState.inCritical = true
		m.cpuState.inWarning = true
	case m.warnPercent > 0 && percent >= m.warnPercent:
		if !m.cpuState.inWarning {
			m.logger.Warn("cpu usage elevated", "cpu_percent", percent)
		}
		m.cpuState.inWarning = true
		m.cpuState.inCritical = false
	default:
		m.cpuState.inWarning = false
		m.cpuState.inCritical = false
	}
}
