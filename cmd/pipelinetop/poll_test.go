package main

import (
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/require"
)

const sampleMetrics = `
# HELP rtpipeline_host_cpu_headroom_percent Percentage of CPU capacity not in use.
# TYPE rtpipeline_host_cpu_headroom_percent gauge
rtpipeline_host_cpu_headroom_percent 62.5
# HELP rtpipeline_modules_ramp_active 1 if a module's named ramp is currently in progress, else 0.
# TYPE rtpipeline_modules_ramp_active gauge
rtpipeline_modules_ramp_active{module="front-volume",param="gain"} 1
rtpipeline_modules_ramp_active{module="front-eq",param="gain"} 0
# HELP rtpipeline_scheduler_period_duration_seconds Wall-clock time to process one routing zone's period.
# TYPE rtpipeline_scheduler_period_duration_seconds histogram
rtpipeline_scheduler_period_duration_seconds_bucket{zone="zone-0",le="0.0001"} 3
rtpipeline_scheduler_period_duration_seconds_bucket{zone="zone-0",le="+Inf"} 10
rtpipeline_scheduler_period_duration_seconds_sum{zone="zone-0"} 0.004
rtpipeline_scheduler_period_duration_seconds_count{zone="zone-0"} 10
`

func parseSample(t *testing.T) map[string]*dtoMetricFamily {
	t.Helper()
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(sampleMetrics))
	require.NoError(t, err)
	return families
}

func TestGaugeValueReadsCPUHeadroom(t *testing.T) {
	families := parseSample(t)
	require.Equal(t, 62.5, gaugeValue(families, "rtpipeline_host_cpu_headroom_percent", nil))
}

func TestRampStatesFromSortsAndReportsActivity(t *testing.T) {
	families := parseSample(t)
	states := rampStatesFrom(families["rtpipeline_modules_ramp_active"])
	require.Len(t, states, 2)
	require.Equal(t, "front-eq", states[0].Module)
	require.False(t, states[0].Active)
	require.Equal(t, "front-volume", states[1].Module)
	require.True(t, states[1].Active)
}

func TestHistogramTotalsSumsAcrossSeries(t *testing.T) {
	families := parseSample(t)
	count, sum := histogramTotals(families["rtpipeline_scheduler_period_duration_seconds"])
	require.Equal(t, uint64(10), count)
	require.InDelta(t, 0.004, sum, 1e-9)
}

func TestAvgPeriodHandlesZeroCount(t *testing.T) {
	require.Equal(t, int64(0), int64(avgPeriod(snapshot{})))
}
