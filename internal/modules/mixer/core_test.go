package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

func newTestStream(t *testing.T, channels int) *pipeline.AudioStream {
	t.Helper()
	seq := pipeline.NewBundleSequencer(channels*2, 64, 4)
	s, err := pipeline.NewTestStream("s", channels, seq, 64)
	require.NoError(t, err)
	return s
}

func TestMixerSumsTwoInputs(t *testing.T) {
	core := NewCore(1)
	core.AddStreamMapping("in1", "out")
	core.AddStreamMapping("in2", "out")

	in1 := newTestStream(t, 2)
	in2 := newTestStream(t, 2)
	out := newTestStream(t, 2)
	require.NoError(t, core.BindInputStream("in1", in1))
	require.NoError(t, core.BindInputStream("in2", in2))
	require.NoError(t, core.BindOutputStream("out", out))

	for i := range in1.BundledChannel(0) {
		in1.BundledChannel(0)[i] = 1.0
		in2.BundledChannel(0)[i] = 2.0
	}

	require.NoError(t, core.ProcessChild())
	assert.Equal(t, float32(3.0), out.BundledChannel(0)[0])
}

func TestBalanceMutesOppositeChannel(t *testing.T) {
	left, right := balanceGains(1440)
	assert.Equal(t, 0.0, left)
	assert.Equal(t, 1.0, right)

	left2, right2 := balanceGains(-1440)
	assert.Equal(t, 1.0, left2)
	assert.Equal(t, 0.0, right2)
}
