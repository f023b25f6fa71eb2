package pipeline

import "github.com/google/uuid"

// StreamID is a stable identifier for an AudioStream.
type StreamID uuid.UUID

func (id StreamID) String() string { return uuid.UUID(id).String() }

// StreamKind classifies how a stream was allocated during initAudioChain.
// Boundary streams back a single pipeline input or output pin;
// module-internal streams back a 1:1 or in-out pin mapping inside one
// module; intermediate streams bridge two pins of differing channel count
// across a module boundary (up/down-mix, mixer merge) — the fourth stream
// kind documented in original_source's IasAudioChain (SUPPLEMENTED
// FEATURES).
type StreamKind int

const (
	StreamPipelineInput StreamKind = iota
	StreamPipelineOutput
	StreamModuleInternal
	StreamIntermediate
)

// AudioStream is a named set of K channels with a stable ID, viewable as
// bundled (channels packed into the bundle sequencer's slots) or
// non-interleaved (a vector of K pointers to period-sized float buffers).
// It is the unit modules process; pin-to-stream mapping is decided at
// initAudioChain (spec §4.2).
type AudioStream struct {
	ID       StreamID
	Name     string
	Kind     StreamKind
	Channels int

	slots        []BundleSlot
	seq          *BundleSequencer
	periodFrames int

	// zoneID is an opaque routing-zone identifier set by the test harness
	// / routing daemon so it can look up its output stream directly
	// (SUPPLEMENTED FEATURES: getOutputStream(zoneId)).
	zoneID string
}

func newAudioStream(name string, kind StreamKind, channels int, seq *BundleSequencer, periodFrames int) (*AudioStream, error) {
	slots, err := seq.Assign(channels)
	if err != nil {
		return nil, err
	}
	return &AudioStream{
		ID:           StreamID(uuid.New()),
		Name:         name,
		Kind:         kind,
		Channels:     channels,
		slots:        slots,
		seq:          seq,
		periodFrames: periodFrames,
	}, nil
}

// NewTestStream exposes stream construction to other packages' tests
// (equalizer/volume/mixer core tests bind against a bare stream without
// going through a full Pipeline).
func NewTestStream(name string, channels int, seq *BundleSequencer, periodFrames int) (*AudioStream, error) {
	return newAudioStream(name, StreamModuleInternal, channels, seq, periodFrames)
}

// ZoneID returns the routing-zone identifier bound to this stream, if any.
func (s *AudioStream) ZoneID() string { return s.zoneID }

// SetZoneID binds a routing-zone identifier to this stream so
// Pipeline.StreamForZone can find it without walking all output pins.
func (s *AudioStream) SetZoneID(zoneID string) { s.zoneID = zoneID }

// channelSlot resolves logical channel index ch (0..Channels) to the
// bundle and in-bundle slot backing it.
func (s *AudioStream) channelSlot(ch int) (*Bundle, int) {
	remaining := ch
	for _, slot := range s.slots {
		if remaining < slot.Count {
			return s.seq.Bundle(slot.Bundle), slot.FirstSlot + remaining
		}
		remaining -= slot.Count
	}
	panic("pipeline: channel index out of range for stream")
}

// BundledChannel returns the period-frame buffer backing logical channel
// ch, for modules doing SIMD-optimal work directly against bundle memory.
func (s *AudioStream) BundledChannel(ch int) []float32 {
	bundle, slot := s.channelSlot(ch)
	return bundle.Channel(slot)
}

// WriteFromNonInterleaved copies K period-sized buffers into the correct
// slots of the stream's bundles (a scatter that runs once per boundary
// crossing). vec must have exactly s.Channels entries, each of length
// periodFrames; shorter entries are zero-padded.
func (s *AudioStream) WriteFromNonInterleaved(vec [][]float32) error {
	if len(vec) != s.Channels {
		return invalidArgf("writeFromNonInterleaved: want %d channels, got %d", s.Channels, len(vec))
	}
	for ch, src := range vec {
		dst := s.BundledChannel(ch)
		n := copy(dst, src)
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
	}
	return nil
}

// Clear zeroes exactly this stream's channels, leaving any neighboring
// stream packed into the same physical bundle untouched. Deliberately
// finer-grained than Bundle.Clear: a pipeline-output stream sharing a
// bundle with another stream's channels must not zero its neighbor every
// period (an open question resolved in DESIGN.md).
func (s *AudioStream) Clear() {
	for ch := 0; ch < s.Channels; ch++ {
		clear(s.BundledChannel(ch))
	}
}

// Read gathers the stream's bundled channels into vec, the reverse of
// WriteFromNonInterleaved. vec must have exactly s.Channels entries of
// length periodFrames.
func (s *AudioStream) Read(vec [][]float32) error {
	if len(vec) != s.Channels {
		return invalidArgf("read: want %d channels, got %d", s.Channels, len(vec))
	}
	for ch, dst := range vec {
		src := s.BundledChannel(ch)
		copy(dst, src)
	}
	return nil
}
