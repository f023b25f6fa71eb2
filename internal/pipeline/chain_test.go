package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// categorized exposes the error category GetCategory() string sugar
// method without importing internal/errors into this test file.
type categorized interface {
	GetCategory() string
}

func requireCategory(t *testing.T, err error, category string) {
	t.Helper()
	require.Error(t, err)
	c, ok := err.(categorized)
	require.True(t, ok, "error %v does not expose a category", err)
	require.Equal(t, category, c.GetCategory())
}

// sliceInputPort feeds fixed per-channel data to ProvideInputData,
// consuming it a Read call at a time like a real ring buffer would.
type sliceInputPort struct {
	channels int
	data     [][]float32
	offset   int
}

func (s *sliceInputPort) Channels() int { return s.channels }

func (s *sliceInputPort) Read(buf [][]float32) (int, error) {
	avail := len(s.data[0]) - s.offset
	n := len(buf[0])
	if n > avail {
		n = avail
	}
	for ch := range buf {
		copy(buf[ch][:n], s.data[ch][s.offset:s.offset+n])
	}
	s.offset += n
	return n, nil
}

// sliceOutputPort captures whatever RetrieveOutputData writes to it.
type sliceOutputPort struct {
	channels int
	captured [][]float32
}

func (s *sliceOutputPort) Channels() int { return s.channels }

func (s *sliceOutputPort) Write(buf [][]float32) error {
	s.captured = make([][]float32, len(buf))
	for ch := range buf {
		s.captured[ch] = append([]float32(nil), buf[ch]...)
	}
	return nil
}

// gainCore doubles (or scales by an arbitrary factor) whatever is in its
// bound stream each period. The stream is only resolvable after
// InitAudioChain, matching how every real module package's BindPipeline
// helper works.
type gainCore struct {
	stream *AudioStream
	gain   float32
}

func (g *gainCore) ProcessChild() error {
	for ch := 0; ch < g.stream.Channels; ch++ {
		buf := g.stream.BundledChannel(ch)
		for i := range buf {
			buf[i] *= g.gain
		}
	}
	return nil
}

func TestAddBoundaryPinValidation(t *testing.T) {
	p := NewPipeline(4, 48000)

	_, err := p.AddAudioInputPin("", 1)
	requireCategory(t, err, "invalid-argument")

	_, err = p.AddAudioInputPin("in", 0)
	requireCategory(t, err, "invalid-argument")

	pin, err := p.AddAudioInputPin("in", 2)
	require.NoError(t, err)
	require.Equal(t, PipelineInput, pin.Direction)
	require.Equal(t, 2, pin.Channels)
}

func TestLinkDirectionAndChannelRules(t *testing.T) {
	p := NewPipeline(4, 48000)
	in, err := p.AddAudioInputPin("in", 2)
	require.NoError(t, err)
	out, err := p.AddAudioOutputPin("out", 2)
	require.NoError(t, err)
	out2, err := p.AddAudioOutputPin("out2", 3)
	require.NoError(t, err)

	_, err = p.Link(out, in, Immediate)
	requireCategory(t, err, "invalid-argument")

	_, err = p.Link(in, out2, Immediate)
	requireCategory(t, err, "invalid-argument")

	_, err = p.Link(in, out, Immediate)
	require.NoError(t, err)

	_, err = p.Link(in, out2, Immediate)
	requireCategory(t, err, "invalid-argument")
}

func TestInitAudioChainPassthrough(t *testing.T) {
	p := NewPipeline(4, 48000)
	in, err := p.AddAudioInputPin("in", 1)
	require.NoError(t, err)
	out, err := p.AddAudioOutputPin("out", 1)
	require.NoError(t, err)
	_, err = p.Link(in, out, Immediate)
	require.NoError(t, err)
	require.NoError(t, p.InitAudioChain())

	source := &sliceInputPort{channels: 1, data: [][]float32{{1, 2, 3, 4}}}
	remaining, err := p.ProvideInputData(in, source, 4)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	require.NoError(t, p.Process())

	sink := &sliceOutputPort{channels: 1}
	require.NoError(t, p.RetrieveOutputData(out, sink, 4, 0))
	require.Equal(t, []float32{1, 2, 3, 4}, sink.captured[0])
}

func TestInitAudioChainSchedulesModuleAndBindsStreamAfterFreeze(t *testing.T) {
	p := NewPipeline(4, 48000)
	in, err := p.AddAudioInputPin("in", 1)
	require.NoError(t, err)
	out, err := p.AddAudioOutputPin("out", 1)
	require.NoError(t, err)

	core := &gainCore{gain: 2}
	module := NewProcessingModule("gain", "g1", core, nil)
	audioPin, err := module.AddPin("audio", ModuleInOut, 1)
	require.NoError(t, err)
	require.NoError(t, p.AddProcessingModule(module))

	_, err = p.Link(in, audioPin, Immediate)
	require.NoError(t, err)
	_, err = p.Link(audioPin, out, Immediate)
	require.NoError(t, err)

	require.NoError(t, p.InitAudioChain())

	stream, ok := p.StreamForPin(audioPin)
	require.True(t, ok)
	core.stream = stream

	source := &sliceInputPort{channels: 1, data: [][]float32{{1, 2, 3, 4}}}
	_, err = p.ProvideInputData(in, source, 4)
	require.NoError(t, err)
	require.NoError(t, p.Process())

	sink := &sliceOutputPort{channels: 1}
	require.NoError(t, p.RetrieveOutputData(out, sink, 4, 0))
	require.Equal(t, []float32{2, 4, 6, 8}, sink.captured[0])
}

func TestInitAudioChainDetectsCycle(t *testing.T) {
	p := NewPipeline(4, 48000)

	m1 := NewProcessingModule("t", "m1", nil, nil)
	m1In, err := m1.AddPin("in", ModuleInput, 1)
	require.NoError(t, err)
	m1Out, err := m1.AddPin("out", ModuleOutput, 1)
	require.NoError(t, err)
	require.NoError(t, p.AddProcessingModule(m1))

	m2 := NewProcessingModule("t", "m2", nil, nil)
	m2In, err := m2.AddPin("in", ModuleInput, 1)
	require.NoError(t, err)
	m2Out, err := m2.AddPin("out", ModuleOutput, 1)
	require.NoError(t, err)
	require.NoError(t, p.AddProcessingModule(m2))

	_, err = p.Link(m1Out, m2In, Immediate)
	require.NoError(t, err)
	_, err = p.Link(m2Out, m1In, Immediate)
	require.NoError(t, err)

	err = p.InitAudioChain()
	requireCategory(t, err, "cyclic-dependency")
}

func TestDelayedLinkBreaksCycleAndStartsZeroed(t *testing.T) {
	p := NewPipeline(4, 48000)

	m1 := NewProcessingModule("t", "m1", nil, nil)
	m1In, err := m1.AddPin("in", ModuleInput, 1)
	require.NoError(t, err)
	m1Out, err := m1.AddPin("out", ModuleOutput, 1)
	require.NoError(t, err)
	require.NoError(t, p.AddProcessingModule(m1))

	m2 := NewProcessingModule("t", "m2", nil, nil)
	m2In, err := m2.AddPin("in", ModuleInput, 1)
	require.NoError(t, err)
	m2Out, err := m2.AddPin("out", ModuleOutput, 1)
	require.NoError(t, err)
	require.NoError(t, p.AddProcessingModule(m2))

	_, err = p.Link(m1Out, m2In, Immediate)
	require.NoError(t, err)
	_, err = p.Link(m2Out, m1In, Delayed)
	require.NoError(t, err)

	require.NoError(t, p.InitAudioChain())
}

func TestMutationRejectedAfterInitAudioChain(t *testing.T) {
	p := NewPipeline(4, 48000)
	in, err := p.AddAudioInputPin("in", 1)
	require.NoError(t, err)
	out, err := p.AddAudioOutputPin("out", 1)
	require.NoError(t, err)
	_, err = p.Link(in, out, Immediate)
	require.NoError(t, err)
	require.NoError(t, p.InitAudioChain())

	_, err = p.AddAudioInputPin("late", 1)
	requireCategory(t, err, "already-initialized")

	_, err = p.Link(in, out, Immediate)
	requireCategory(t, err, "already-initialized")
}

func TestProcessAndIORejectedBeforeInitAudioChain(t *testing.T) {
	p := NewPipeline(4, 48000)
	in, err := p.AddAudioInputPin("in", 1)
	require.NoError(t, err)

	err = p.Process()
	requireCategory(t, err, "not-initialized")

	_, err = p.ProvideInputData(in, &sliceInputPort{channels: 1, data: [][]float32{{0, 0, 0, 0}}}, 4)
	requireCategory(t, err, "not-initialized")
}

func TestAddProcessingModuleRejectsDuplicateInstanceName(t *testing.T) {
	p := NewPipeline(4, 48000)
	m1 := NewProcessingModule("t", "dup", nil, nil)
	m2 := NewProcessingModule("t", "dup", nil, nil)
	require.NoError(t, p.AddProcessingModule(m1))
	err := p.AddProcessingModule(m2)
	requireCategory(t, err, "invalid-argument")
}
