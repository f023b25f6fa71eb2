package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

func newBoundCore(t *testing.T) *Core {
	t.Helper()
	seq := pipeline.NewBundleSequencer(2, 64, 4)
	stream, err := pipeline.NewTestStream("test", 2, seq, 64)
	require.NoError(t, err)
	core := NewCore(48000, 64, nil, -1440, 200)
	core.BindStream(stream)
	return core
}

func TestVolumeRampReachesTargetExactly(t *testing.T) {
	core := newBoundCore(t)
	require.NoError(t, core.SetVolume(-60, 10, Linear))
	for i := 0; i < 100 && core.volume.active; i++ {
		require.NoError(t, core.ProcessChild())
	}
	assert.InDelta(t, -60.0, linearToDB(core.volume.current), 0.01)
}

func TestMuteProducesExactZero(t *testing.T) {
	core := newBoundCore(t)
	buf := core.stream.BundledChannel(0)
	for i := range buf {
		buf[i] = 1.0
	}
	core.SetMuteState(true, 1, Linear)
	for i := 0; i < 10 && core.mute.active; i++ {
		require.NoError(t, core.ProcessChild())
	}
	require.NoError(t, core.ProcessChild())
	for _, v := range core.stream.BundledChannel(0) {
		assert.Equal(t, float32(0), v)
	}
}

func TestLoudnessTableInterpolation(t *testing.T) {
	tbl := LoudnessTable{VolumeDB: []float64{-60, -30, 0}, GainDB: []float64{12, 6, 0}}
	assert.InDelta(t, 9.0, tbl.GainAt(-45), 1e-9)
	assert.Equal(t, 12.0, tbl.GainAt(-100))
	assert.Equal(t, 0.0, tbl.GainAt(10))
}

func TestSDVInterpolation(t *testing.T) {
	sdv := newSDVTable()
	require.NoError(t, sdv.setTable(
		[]int32{0, 100, 200},
		[]int32{0, 100, 200},
		[]int32{0, 50, 150},
	))
	rising := sdv.setSpeed(50)
	g := sdv.gainAt(50, rising)
	assert.Greater(t, g, 1.0)
}
