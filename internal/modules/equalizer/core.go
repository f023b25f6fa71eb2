// Package equalizer implements the per-channel biquad-cascade equalizer
// module: user mode (ramped gain per filter, cascade shape set per
// stream) and car mode (cascade shape, gain included, set per
// stream-channel immediately).
package equalizer

import (
	"sync"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// GainRampFinishedFunc is called when a ramp started by
// RampGainSingleStreamSingleFilter reaches its target (spec §4.7:
// "the core signals gainRampingFinished(channel, gain, userData) to its
// callback").
type GainRampFinishedFunc func(channel int, filterID int, gain float64)

// stage is one cascade entry: its parameters, its live coefficients, and
// (for peak/shelving types) its ramp state.
type stage struct {
	params FilterParams
	bq     biquad
	ramp   gainRamp
}

// Core is the DSP half of an equalizer ProcessingModule (spec §4.7).
type Core struct {
	mode                Mode
	sampleRate           float64
	numFilterStagesMax   int
	onGainRampFinished   GainRampFinishedFunc

	mu       sync.Mutex
	stream   *pipeline.AudioStream
	channels [][]stage // per channel, cascade in order; index by filter ID
	backup   [][]stage // last-known-good cascade, for atomic-replace rollback
}

// NewCore builds an equalizer core. numFilterStagesMax bounds the cascade
// length accepted by SetFiltersSingleStream/CarSetFilter (NoSpaceLeft
// above it).
func NewCore(mode Mode, sampleRate float64, numFilterStagesMax int, onFinished GainRampFinishedFunc) *Core {
	return &Core{
		mode:               mode,
		sampleRate:         sampleRate,
		numFilterStagesMax: numFilterStagesMax,
		onGainRampFinished: onFinished,
	}
}

// Mode reports the immutable mode this core was constructed with.
func (c *Core) Mode() Mode { return c.mode }

// BindStream attaches the resolved AudioStream this core reads/writes in
// place, and allocates one empty cascade per channel. Called once after
// Pipeline.InitAudioChain by the host wiring code.
func (c *Core) BindStream(stream *pipeline.AudioStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stream = stream
	c.channels = make([][]stage, stream.Channels)
}

// ProcessChild runs the cascade of every channel in the bound stream
// against this period's bundled samples. A peak/shelving stage's ramp
// steps once per audio frame (spec §4.7: "gradient dB/frame"), with its
// biquad coefficients recomputed at each step, so the gain changes
// continuously across the period rather than jumping once at its start.
func (c *Core) ProcessChild() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return notInitialized("equalizer core: process called before BindStream")
	}

	for ch := range c.channels {
		cascade := c.channels[ch]
		buf := c.stream.BundledChannel(ch)
		for n := range buf {
			x := buf[n]
			for i := range cascade {
				st := &cascade[i]
				if st.params.Type == Flat {
					continue
				}
				if st.ramp.active {
					finished := st.ramp.advance()
					st.params.GainLinear = st.ramp.current
					sectionQ := st.params.Quality
					if st.params.Order > 2 {
						sectionQ = butterworthQ(st.params.Order, st.params.Section)
					}
					st.bq.setCoefficients(st.params, c.sampleRate, sectionQ)
					if finished && c.onGainRampFinished != nil {
						c.onGainRampFinished(ch, i, st.ramp.current)
					}
				}
				x = st.bq.process(x)
			}
			buf[n] = x
		}
	}
	return nil
}

// SetFiltersSingleStream atomically replaces the cascade of the given
// channel indices (empty = every channel in the stream) with
// filterParams. A table longer than numFilterStagesMax or with an invalid
// entry is rejected before anything changes; if a channel index is out of
// range, the pre-call cascade (the "backup") is restored and the error
// returned, so there is no partial mutation (spec §7).
func (c *Core) SetFiltersSingleStream(channelIDs []int, filterParams []FilterParams) error {
	if len(filterParams) > c.numFilterStagesMax {
		return noSpaceLeft(len(filterParams), c.numFilterStagesMax)
	}
	for _, p := range filterParams {
		if err := p.validateSection(); err != nil {
			return err
		}
		if err := p.validateBounds(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return notInitialized("equalizer core: SetFiltersSingleStream called before BindStream")
	}

	targets := channelIDs
	if len(targets) == 0 {
		targets = make([]int, len(c.channels))
		for i := range targets {
			targets[i] = i
		}
	}

	c.backup = make([][]stage, len(c.channels))
	copy(c.backup, c.channels)

	for _, ch := range targets {
		if ch < 0 || ch >= len(c.channels) {
			c.channels = c.backup
			return invalidArgf("channel index %d out of range", ch)
		}
		cascade := make([]stage, len(filterParams))
		for i, p := range filterParams {
			cascade[i].params = p
			sectionQ := p.Quality
			if p.Order > 2 {
				sectionQ = butterworthQ(p.Order, p.Section)
			}
			cascade[i].ramp.current = p.GainLinear
			cascade[i].bq.setCoefficients(p, c.sampleRate, sectionQ)
		}
		c.channels[ch] = cascade
	}
	return nil
}

// RampGainSingleStreamSingleFilter begins a gain ramp on filterID for
// every channel of the bound stream, if that filter's type is peak or
// shelving (others silently ignore the call, spec §4.7).
func (c *Core) RampGainSingleStreamSingleFilter(filterID int, targetGainLinear float64, gradientFactor float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return notInitialized("equalizer core: ramp called before BindStream")
	}
	for ch := range c.channels {
		if filterID < 0 || filterID >= len(c.channels[ch]) {
			continue
		}
		st := &c.channels[ch][filterID]
		if !st.params.Type.rampable() {
			continue
		}
		st.ramp.current = st.params.GainLinear
		st.ramp.start(targetGainLinear, gradientFactor)
	}
	return nil
}

// SetFilterParams replaces filterID's full parameter set — shape and
// gain together — with p and clears any in-progress ramp, used by
// car-mode CarSetFilter which sets a cascade stage's freq/Q/type/order
// and gain atomically, with no ramp (spec §4.7).
func (c *Core) SetFilterParams(channelID, filterID int, p FilterParams) error {
	if err := p.validateBounds(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if channelID < 0 || channelID >= len(c.channels) {
		return invalidArgf("channel index %d out of range", channelID)
	}
	if filterID < 0 || filterID >= len(c.channels[channelID]) {
		return invalidArgf("filter index %d out of range", filterID)
	}
	st := &c.channels[channelID][filterID]
	st.params = p
	st.ramp.current = p.GainLinear
	st.ramp.active = false
	sectionQ := p.Quality
	if p.Order > 2 {
		sectionQ = butterworthQ(p.Order, p.Section)
	}
	st.bq.setCoefficients(p, c.sampleRate, sectionQ)
	return nil
}

// CarSetNumFilters resizes channelID's cascade to numFilters flat
// (passthrough) stages, preserving any stage already configured within
// the new bound and leaving new stages flat until a CarSetFilter call
// configures them.
func (c *Core) CarSetNumFilters(channelID, numFilters int) error {
	if numFilters > c.numFilterStagesMax {
		return noSpaceLeft(numFilters, c.numFilterStagesMax)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if channelID < 0 || channelID >= len(c.channels) {
		return invalidArgf("channel index %d out of range", channelID)
	}
	cascade := make([]stage, numFilters)
	copy(cascade, c.channels[channelID])
	for i := len(c.channels[channelID]); i < numFilters; i++ {
		cascade[i].params.Type = Flat
		cascade[i].bq.setCoefficients(FilterParams{Type: Flat}, c.sampleRate, 1)
	}
	c.channels[channelID] = cascade
	return nil
}

// NumChannels returns the channel count of the bound stream, 0 if unbound.
func (c *Core) NumChannels() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.channels)
}
