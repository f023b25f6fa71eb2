package testfw

import (
	"encoding/binary"
	"math"

	"github.com/smallnest/ringbuffer"
)

const bytesPerSample = 4 // float32

// RingPort is a single-producer/single-consumer port backed by one
// byte ring buffer per channel (spec §1: "the lock-free ring buffer
// primitive ... provides beginAccess/endAccess with areas and offsets;
// its implementation is not specified here" — this repo's concrete
// stand-in, used by the offline test harness). It implements both
// pipeline.InputPort and pipeline.OutputPort.
type RingPort struct {
	channels []*ringbuffer.RingBuffer
}

// NewRingPort allocates a port with the given channel count, each
// channel's ring sized to hold capacityFrames frames.
func NewRingPort(channels, capacityFrames int) *RingPort {
	p := &RingPort{channels: make([]*ringbuffer.RingBuffer, channels)}
	for i := range p.channels {
		p.channels[i] = ringbuffer.New(capacityFrames * bytesPerSample)
	}
	return p
}

// Channels reports the port's channel count.
func (p *RingPort) Channels() int { return len(p.channels) }

// PushFrames writes every frame of vec (one []float32 per
// channel) into the ring, for test setup / simulated device write.
func (p *RingPort) PushFrames(vec [][]float32) (written int, err error) {
	if len(vec) != len(p.channels) {
		return 0, invalidArgf("ring port: want %d channels, got %d", len(p.channels), len(vec))
	}
	frames := 0
	if len(vec) > 0 {
		frames = len(vec[0])
	}
	buf := make([]byte, frames*bytesPerSample)
	for ch, samples := range vec {
		for i, s := range samples {
			binary.LittleEndian.PutUint32(buf[i*bytesPerSample:], math.Float32bits(s))
		}
		n, werr := p.channels[ch].Write(buf)
		if werr != nil {
			return 0, ioFailed("ring port write", werr)
		}
		written = n / bytesPerSample
	}
	return written, nil
}

// Read implements pipeline.InputPort: copies up to len(buf[0]) frames
// per channel from the ring, returning the minimum frames actually
// available across all channels (a short read signals underrun).
func (p *RingPort) Read(buf [][]float32) (framesRead int, err error) {
	if len(buf) != len(p.channels) {
		return 0, invalidArgf("ring port: want %d channels, got %d", len(p.channels), len(buf))
	}
	if len(buf) == 0 {
		return 0, nil
	}
	want := len(buf[0])
	framesRead = want

	raw := make([]byte, want*bytesPerSample)
	for ch := range p.channels {
		n, _ := p.channels[ch].Read(raw)
		frames := n / bytesPerSample
		if frames < framesRead {
			framesRead = frames
		}
		for i := 0; i < frames; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*bytesPerSample:])
			buf[ch][i] = math.Float32frombits(bits)
		}
	}
	return framesRead, nil
}

// Write implements pipeline.OutputPort: appends buf's frames to each
// channel's ring, for the harness to drain afterward (e.g. into a WAV
// writer).
func (p *RingPort) Write(buf [][]float32) error {
	_, err := p.PushFrames(buf)
	return err
}
