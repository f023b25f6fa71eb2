// Package mixer implements the N:M stream-summation module: every output
// stream sums the input streams mapped to it, each input scaled by its
// own balance/fader/gain-offset/enable ramps (spec §4.9).
package mixer

import (
	"sync"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// inputState holds one input stream's ramps and its resolved stream
// pointer, bound after InitAudioChain.
type inputState struct {
	name       string
	stream     *pipeline.AudioStream
	outputName string

	balance    ramp // tenths of dB, interpolated in value-domain directly
	fader      ramp
	gainOffset ramp // linear factor
	enable     ramp // 0..1 factor
}

// outputState holds one output stream's resolved pointer.
type outputState struct {
	name   string
	stream *pipeline.AudioStream
}

// Core is the DSP half of a mixer ProcessingModule.
type Core struct {
	rampPeriods int // default ramp duration, in periods, for scalar changes

	mu      sync.Mutex
	inputs  map[string]*inputState
	outputs map[string]*outputState
}

// NewCore builds a mixer core with the given default ramp duration (in
// periods) applied to balance/fader/gain-offset/enable changes.
func NewCore(rampPeriods int) *Core {
	if rampPeriods < 1 {
		rampPeriods = 1
	}
	return &Core{
		rampPeriods: rampPeriods,
		inputs:      make(map[string]*inputState),
		outputs:     make(map[string]*outputState),
	}
}

// AddStreamMapping registers that input contributes to output (spec
// §4.9's addStreamMapping). Must be called before BindStreams.
func (c *Core) AddStreamMapping(input, output string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs[input] = &inputState{name: input, outputName: output}
	if _, ok := c.outputs[output]; !ok {
		c.outputs[output] = &outputState{name: output}
	}
	st := c.inputs[input]
	st.balance.current = 0
	st.fader.current = 0
	st.gainOffset.current = 1.0
	st.enable.current = 1.0
}

// BindInputStream resolves the AudioStream backing a previously mapped
// input pin name.
func (c *Core) BindInputStream(name string, stream *pipeline.AudioStream) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.inputs[name]
	if !ok {
		return invalidArgf("mixer: unmapped input pin %q", name)
	}
	st.stream = stream
	return nil
}

// BindOutputStream resolves the AudioStream backing a previously mapped
// output pin name.
func (c *Core) BindOutputStream(name string, stream *pipeline.AudioStream) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.outputs[name]
	if !ok {
		return invalidArgf("mixer: unmapped output pin %q", name)
	}
	out.stream = stream
	return nil
}

// SetBalance starts a ramp of input's balance toward value (tenths of dB,
// spec range implicitly [-cCutOff, cCutOff]).
func (c *Core) SetBalance(input string, value int32) error {
	if value < -cCutOff || value > cCutOff {
		return invalidArgf("balance %d out of range [-%d, %d]", value, cCutOff, cCutOff)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.inputs[input]
	if !ok {
		return invalidArgf("mixer: unmapped input pin %q", input)
	}
	st.balance.set(st.balance.current, float64(value), c.rampPeriods)
	return nil
}

// SetFader starts a ramp of input's fader toward value (tenths of dB).
func (c *Core) SetFader(input string, value int32) error {
	if value < -cCutOff || value > cCutOff {
		return invalidArgf("fader %d out of range [-%d, %d]", value, cCutOff, cCutOff)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.inputs[input]
	if !ok {
		return invalidArgf("mixer: unmapped input pin %q", input)
	}
	st.fader.set(st.fader.current, float64(value), c.rampPeriods)
	return nil
}

// SetGainOffset starts a ramp of input's gain offset toward value
// (tenths of dB, range [-200, +200] per spec §4.9).
func (c *Core) SetGainOffset(input string, value int32) error {
	if value < -200 || value > 200 {
		return invalidArgf("gain offset %d out of range [-200, 200]", value)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.inputs[input]
	if !ok {
		return invalidArgf("mixer: unmapped input pin %q", input)
	}
	st.gainOffset.set(st.gainOffset.current, dbTenthsToLinear(value), c.rampPeriods)
	return nil
}

// SetInputEnable starts a ramp of input's own enable factor toward 0 or 1.
func (c *Core) SetInputEnable(input string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.inputs[input]
	if !ok {
		return invalidArgf("mixer: unmapped input pin %q", input)
	}
	target := 0.0
	if enabled {
		target = 1.0
	}
	st.enable.set(st.enable.current, target, c.rampPeriods)
	return nil
}

// ProcessChild clears every mapped output stream, then sums each input
// stream into its mapped output, scaled by the input's current
// balance/fader/gain-offset/enable factors (spec §4.9).
func (c *Core) ProcessChild() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, out := range c.outputs {
		if out.stream == nil {
			return notInitialized("mixer core: process called before BindOutputStream")
		}
		out.stream.Clear()
	}

	for _, in := range c.inputs {
		if in.stream == nil {
			return notInitialized("mixer core: process called before BindInputStream")
		}
		in.balance.advance()
		in.fader.advance()
		in.gainOffset.advance()
		in.enable.advance()

		out, ok := c.outputs[in.outputName]
		if !ok || out.stream == nil {
			continue
		}

		balLeft, balRight := balanceGains(int32(in.balance.current))
		fadeFront, fadeRear := balanceGains(int32(in.fader.current))
		offset := in.gainOffset.current * in.enable.current

		channels := in.stream.Channels
		if out.stream.Channels < channels {
			channels = out.stream.Channels
		}
		for ch := 0; ch < channels; ch++ {
			src := in.stream.BundledChannel(ch)
			dst := out.stream.BundledChannel(ch)

			channelGain := offset
			if channels >= 2 {
				if ch%2 == 0 {
					channelGain *= balLeft
				} else {
					channelGain *= balRight
				}
			}
			if channels >= 4 {
				if ch < 2 {
					channelGain *= fadeFront
				} else {
					channelGain *= fadeRear
				}
			}

			g := float32(channelGain)
			for n := range dst {
				dst[n] += src[n] * g
			}
		}
	}
	return nil
}
