package equalizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

func newBoundCore(t *testing.T, mode Mode, channels int) *Core {
	t.Helper()
	seq := pipeline.NewBundleSequencer(channels, 64, 4)
	stream, err := pipeline.NewTestStream("test", channels, seq, 64)
	require.NoError(t, err)
	core := NewCore(mode, 48000, 16, nil)
	core.BindStream(stream)
	return core
}

func TestFlatCascadeIsIdentity(t *testing.T) {
	core := newBoundCore(t, ModeUser, 2)
	require.NoError(t, core.SetFiltersSingleStream(nil, []FilterParams{{Type: Flat}}))

	buf := core.stream.BundledChannel(0)
	for i := range buf {
		buf[i] = float32(math.Sin(float64(i)))
	}
	want := append([]float32(nil), buf...)

	require.NoError(t, core.ProcessChild())
	assert.Equal(t, want, core.stream.BundledChannel(0))
}

func TestRampReachesTargetExactly(t *testing.T) {
	core := newBoundCore(t, ModeUser, 1)
	require.NoError(t, core.SetFiltersSingleStream(nil, []FilterParams{
		{Type: Peak, FreqHz: 1000, Quality: 1, GainLinear: 1.0, Order: 2},
	}))

	require.NoError(t, core.RampGainSingleStreamSingleFilter(0, 2.0, 1.05))

	for i := 0; i < 1000; i++ {
		require.NoError(t, core.ProcessChild())
		if !core.channels[0][0].ramp.active {
			break
		}
	}
	assert.InDelta(t, 2.0, core.channels[0][0].ramp.current, 1e-9)
}

func TestSetFiltersRejectsOverCapacity(t *testing.T) {
	core := newBoundCore(t, ModeUser, 1)
	core.numFilterStagesMax = 1
	err := core.SetFiltersSingleStream(nil, []FilterParams{{Type: Flat}, {Type: Flat}})
	assert.Error(t, err)
}

func TestSectionBoundRejected(t *testing.T) {
	p := FilterParams{Order: 2, Section: 1}
	assert.Error(t, p.validateSection())

	p2 := FilterParams{Order: 4, Section: 1}
	assert.NoError(t, p2.validateSection())
}
