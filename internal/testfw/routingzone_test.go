package testfw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

func newPassthroughPipeline(t *testing.T, channels, periodFrames int) (*pipeline.Pipeline, *pipeline.Pin, *pipeline.Pin) {
	t.Helper()
	p := pipeline.NewPipeline(periodFrames, 48000)
	in, err := p.AddAudioInputPin("in", channels)
	require.NoError(t, err)
	out, err := p.AddAudioOutputPin("out", channels)
	require.NoError(t, err)
	_, err = p.Link(in, out, pipeline.Immediate)
	require.NoError(t, err)
	require.NoError(t, p.InitAudioChain())
	return p, in, out
}

func TestRingPortRoundTrip(t *testing.T) {
	const channels, period = 2, 16

	p, in, out := newPassthroughPipeline(t, channels, period)

	src := NewRingPort(channels, period*4)
	sink := NewRingPort(channels, period*4)

	vec := make([][]float32, channels)
	for ch := range vec {
		vec[ch] = make([]float32, period)
		for i := range vec[ch] {
			vec[ch][i] = float32(ch + 1)
		}
	}
	_, err := src.PushFrames(vec)
	require.NoError(t, err)

	zone := NewRoutingZone("test", p)
	zone.BindInput(in, src)
	zone.BindOutput(out, sink)

	require.NoError(t, zone.RunPeriods(context.Background(), 1))

	got := make([][]float32, channels)
	for ch := range got {
		got[ch] = make([]float32, period)
	}
	n, err := sink.Read(got)
	require.NoError(t, err)
	require.Equal(t, period, n)
	for ch := range got {
		for i := range got[ch] {
			require.Equal(t, float32(ch+1), got[ch][i])
		}
	}
}
