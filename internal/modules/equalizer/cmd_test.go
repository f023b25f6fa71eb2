package equalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

func newCarCmd(t *testing.T, channels int) (*Cmd, *Core) {
	t.Helper()
	core := newBoundCore(t, ModeCar, channels)
	module := pipeline.NewProcessingModule("equalizer", "car-eq", core, nil)
	cmd := NewCmd(core, module)
	module.Cmd = cmd
	return cmd, core
}

func carSetFilterProps(channelIdx, filterID, freqHz, gainTenths, qualityX10, filterType, order int32) *pipeline.Properties {
	p := pipeline.NewProperties()
	p.SetString("cmd", CmdCarSetFilter)
	p.SetInt32("channelIdx", channelIdx)
	p.SetInt32("filterId", filterID)
	p.SetInt32("freq", freqHz)
	p.SetInt32("gain", gainTenths)
	p.SetInt32("quality", qualityX10)
	p.SetInt32("type", filterType)
	p.SetInt32("order", order)
	return p
}

// TestCarSetFilterAppliesShapeNotJustGain reproduces spec §8 scenario 2
// (car-mode bass shelving boost): a CarSetFilter command for a
// LowShelving stage must leave the cascade stage actually shaping the
// signal, not flat, and ProcessChild must apply a gain other than unity.
func TestCarSetFilterAppliesShapeNotJustGain(t *testing.T) {
	const periodFrames = 4096
	seq := pipeline.NewBundleSequencer(1, periodFrames, 4)
	stream, err := pipeline.NewTestStream("test", 1, seq, periodFrames)
	require.NoError(t, err)
	core := NewCore(ModeCar, 48000, 16, nil)
	core.BindStream(stream)
	module := pipeline.NewProcessingModule("equalizer", "car-eq", core, nil)
	cmd := NewCmd(core, module)
	module.Cmd = cmd

	// +12dB low shelving at 200Hz, Q=0.7, order 2 -> gainTenths=120,
	// quality encoded *10 -> 7.
	props := carSetFilterProps(0, 0, 200, 120, 7, int32(LowShelving), 2)
	require.NoError(t, cmd.ProcessCmd(props, nil))

	require.Len(t, core.channels[0], 1)
	st := core.channels[0][0]
	assert.Equal(t, LowShelving, st.params.Type)
	assert.Equal(t, 200.0, st.params.FreqHz)
	assert.InDelta(t, dbTenthsToLinear(120), st.params.GainLinear, 1e-9)

	buf := core.stream.BundledChannel(0)
	for i := range buf {
		buf[i] = 1
	}
	require.NoError(t, core.ProcessChild())

	// A unity-gain Flat stage would leave a constant-1 input untouched;
	// a +12dB low-shelf boosts a DC-like input well past unity once the
	// filter has settled (its designed DC gain is dbTenthsToLinear(120),
	// about 3.98).
	out := core.stream.BundledChannel(0)
	assert.Greater(t, out[len(out)-1], float32(2.0))
}

// TestCarSetFilterRejectsOutOfBoundsParams proves carSetFilter validates
// against the same catalog bounds SetFiltersSingleStream does, instead of
// only validating the section index.
func TestCarSetFilterRejectsOutOfBoundsParams(t *testing.T) {
	cmd, _ := newCarCmd(t, 1)

	// Peak filter gain of +60dB is well outside the catalog's ±30dB bound.
	props := carSetFilterProps(0, 0, 1000, 600, 10, int32(Peak), 2)
	err := cmd.ProcessCmd(props, nil)
	assert.Error(t, err)
}

func TestCarSetNumFiltersThenCarSetFilterTargetsCorrectStage(t *testing.T) {
	cmd, core := newCarCmd(t, 1)

	numFilters := pipeline.NewProperties()
	numFilters.SetString("cmd", CmdCarSetNumFilters)
	numFilters.SetInt32("channelIdx", 0)
	numFilters.SetInt32("numFilters", 2)
	require.NoError(t, cmd.ProcessCmd(numFilters, nil))
	require.Len(t, core.channels[0], 2)
	assert.Equal(t, Flat, core.channels[0][0].params.Type)
	assert.Equal(t, Flat, core.channels[0][1].params.Type)

	props := carSetFilterProps(0, 1, 2000, 90, 10, int32(Peak), 2)
	require.NoError(t, cmd.ProcessCmd(props, nil))
	assert.Equal(t, Flat, core.channels[0][0].params.Type)
	assert.Equal(t, Peak, core.channels[0][1].params.Type)
}
