// Package volume implements the volume/loudness/SDV module: a single
// ramped gain per stream, an independent mute ramp, N loudness bands
// driven by a piecewise-linear table, and speed-dependent extra gain
// (spec §4.8).
package volume

import (
	"sync"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// Band is one loudness band's static configuration: center frequency,
// filter Q, and its volume→gain table.
type Band struct {
	FreqHz  float64
	Quality float64
	Table   LoudnessTable
}

// Core is the DSP half of a volume ProcessingModule.
type Core struct {
	sampleRate   float64
	periodFrames int
	minVolDB     float64
	maxVolDB     float64

	mu sync.Mutex

	stream *pipeline.AudioStream

	volume ramp
	mute   ramp

	loudnessOn bool
	bands      []Band
	bandFilter [][]biquad // per channel, per band

	sdvOn    bool
	sdv      *sdvTable
	sdvGain  float64
}

// NewCore builds a volume core with the given loudness band
// configuration (possibly empty) and volume range.
func NewCore(sampleRate float64, periodFrames int, bands []Band, minVolDB, maxVolDB float64) *Core {
	return &Core{
		sampleRate:   sampleRate,
		periodFrames: periodFrames,
		minVolDB:     minVolDB,
		maxVolDB:     maxVolDB,
		bands:        bands,
		sdv:          newSDVTable(),
		sdvGain:      1.0,
	}
}

// BindStream attaches the resolved AudioStream and allocates per-channel
// loudness-band filter state.
func (c *Core) BindStream(stream *pipeline.AudioStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stream = stream
	c.volume.current = 1.0
	c.mute.current = 1.0
	c.bandFilter = make([][]biquad, stream.Channels)
	for ch := range c.bandFilter {
		c.bandFilter[ch] = make([]biquad, len(c.bands))
	}
}

func (c *Core) periodsForMs(ms int32) int {
	periodMs := float64(c.periodFrames) / c.sampleRate * 1000
	if periodMs <= 0 {
		return 1
	}
	periods := int(float64(ms)/periodMs + 0.999999)
	if periods < 1 {
		periods = 1
	}
	return periods
}

// SetVolume starts a ramp of the stream's own gain toward targetDB over
// rampTimeMs (spec §4.8).
func (c *Core) SetVolume(targetDB float64, rampTimeMs int32, shape RampShape) error {
	if targetDB < c.minVolDB || targetDB > c.maxVolDB {
		return invalidArgf("volume %.1f dB out of range [%.1f, %.1f]", targetDB, c.minVolDB, c.maxVolDB)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	target := dbToLinear(targetDB)
	c.volume.start(c.volume.current, target, c.periodsForMs(clampRampTimeMs(rampTimeMs)), shape)
	return nil
}

// SetMuteState starts the mute ramp toward on (0 gain) or off (unity).
func (c *Core) SetMuteState(on bool, rampTimeMs int32, shape RampShape) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := 1.0
	if on {
		target = 0.0
	}
	c.mute.start(c.mute.current, target, c.periodsForMs(clampRampTimeMs(rampTimeMs)), shape)
}

// SetLoudness toggles whether loudness bands contribute this period.
func (c *Core) SetLoudness(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loudnessOn = on
}

// SetSdv toggles whether SDV gain multiplies into the effective gain.
func (c *Core) SetSdv(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sdvOn = on
}

// SetSdvTable replaces the SDV speed→gain table.
func (c *Core) SetSdvTable(speeds, gainIncTenths, gainDecTenths []int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sdv.setTable(speeds, gainIncTenths, gainDecTenths)
}

// SetSpeed feeds the current vehicle speed into the SDV table.
func (c *Core) SetSpeed(speedKmh int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rising := c.sdv.setSpeed(speedKmh)
	c.sdvGain = c.sdv.gainAt(speedKmh, rising)
}

// ProcessChild implements spec §4.8's ordering: volume ramp advances
// first, then mute ramp, then loudness add, then SDV multiplication.
// output = dry·volume·mute + Σ band_out·loudness_gain(band, volume), all
// further scaled by the SDV factor.
func (c *Core) ProcessChild() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return notInitialized("volume core: process called before BindStream")
	}

	c.volume.advance()
	c.mute.advance()

	currentVolumeDB := linearToDB(c.volume.current)
	gain := float32(c.volume.current * c.mute.current)

	var bandGains []float64
	if c.loudnessOn && len(c.bands) > 0 {
		bandGains = make([]float64, len(c.bands))
		for i, band := range c.bands {
			bandGains[i] = dbToLinear(band.Table.GainAt(currentVolumeDB))
		}
	}

	for ch := 0; ch < c.stream.Channels; ch++ {
		buf := c.stream.BundledChannel(ch)
		if c.loudnessOn && len(c.bands) > 0 {
			for b, band := range c.bands {
				c.bandFilter[ch][b].setPeaking(band.FreqHz, band.Quality, bandGains[b], c.sampleRate)
			}
		}
		for n := range buf {
			dry := buf[n]
			out := dry * gain
			if c.loudnessOn {
				for b := range c.bands {
					out += c.bandFilter[ch][b].process(dry) * float32(bandGains[b])
				}
			}
			if c.sdvOn {
				out *= float32(c.sdvGain)
			}
			buf[n] = out
		}
	}
	return nil
}

// CurrentVolumeDB reports the stream's current (possibly mid-ramp) volume
// in dB, for diagnostics/returnProps.
func (c *Core) CurrentVolumeDB() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return linearToDB(c.volume.current)
}
