package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingRecorder struct {
	misses int
}

func (r *recordingRecorder) RecordDeadlineMiss(zoneID string, overrun time.Duration) { r.misses++ }
func (r *recordingRecorder) RecordCPUHeadroom(percent float64)                       {}

func TestRecordPeriodWithinDeadlineDoesNotCountAsMiss(t *testing.T) {
	m, err := NewMonitor(Config{PeriodFrames: 256, SampleRate: 48000})
	require.NoError(t, err)

	m.RecordPeriod("zone1", m.Deadline()/2)
	assert.Equal(t, 0, m.MissCount("zone1"))
}

func TestRecordPeriodOverDeadlineCountsMiss(t *testing.T) {
	rec := &recordingRecorder{}
	m, err := NewMonitor(Config{PeriodFrames: 256, SampleRate: 48000, Recorder: rec})
	require.NoError(t, err)

	m.RecordPeriod("zone1", m.Deadline()*2)
	m.RecordPeriod("zone1", m.Deadline()*2)
	assert.Equal(t, 2, m.MissCount("zone1"))
	assert.Equal(t, 2, rec.misses)
}

func TestRecordPeriodResetsConsecutiveOnRecovery(t *testing.T) {
	m, err := NewMonitor(Config{PeriodFrames: 256, SampleRate: 48000})
	require.NoError(t, err)

	m.RecordPeriod("zone1", m.Deadline()*2)
	m.RecordPeriod("zone1", m.Deadline()/2)
	m.RecordPeriod("zone1", m.Deadline()*2)
	assert.Equal(t, 2, m.MissCount("zone1"))
	assert.Equal(t, 1, m.consecutive["zone1"])
}

// TestStartStopsItsPollerGoroutine proves Monitor.Start's CPU-headroom
// ticker goroutine actually exits once its context is canceled, rather
// than leaking for the lifetime of the test binary.
func TestStartStopsItsPollerGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("testing.(*T).Run"),
		goleak.IgnoreTopFunction("runtime.gopark"),
	)

	rec := &recordingRecorder{}
	m, err := NewMonitor(Config{
		PeriodFrames:  256,
		SampleRate:    48000,
		CheckInterval: time.Millisecond,
		Recorder:      rec,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Monitor.Start did not return after context cancellation")
	}
}
