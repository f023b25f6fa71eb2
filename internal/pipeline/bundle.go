package pipeline

import (
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// DefaultBundleWidth is used when the running CPU offers no wider SIMD
// register file than SSE; spec §9 calls 4 "a SIMD choice, not a
// correctness requirement" — this package picks 8 when AVX2 is available
// so two bundles' worth of float32 lanes fill a single YMM register.
const DefaultBundleWidth = 4

// wideBundleWidth is used on CPUs that advertise AVX2, doubling lane
// utilization for the bundled view's inner loops.
const wideBundleWidth = 8

// DetectBundleWidth returns the bundle width (channels per bundle) the
// current CPU should use. It never returns anything other than 4 or 8: the
// scheduling algorithm and bundle layout are both width-independent (spec
// §9), but going beyond what a single vector register holds buys nothing.
func DetectBundleWidth() int {
	if cpuid.CPU.Supports(cpuid.AVX2) {
		return wideBundleWidth
	}
	return DefaultBundleWidth
}

// BundleID identifies one fixed width×periodFrames block of float32
// samples.
type BundleID int

// Bundle is a fixed block of `width` channels × period frames, float32,
// laid out channel-major: channel c's frame f lives at
// data[c*periodFrames+f]; samples are not interleaved across channels.
// Clearing a bundle zeroes all channels.
type Bundle struct {
	ID    BundleID
	Width int
	data  []float32 // len == Width*periodFrames
}

func newBundle(id BundleID, width, periodFrames int) *Bundle {
	return &Bundle{ID: id, Width: width, data: make([]float32, width*periodFrames)}
}

// Channel returns the period-frame slice for the given slot (0..Width).
func (b *Bundle) Channel(slot int) []float32 {
	periodFrames := len(b.data) / b.Width
	return b.data[slot*periodFrames : (slot+1)*periodFrames]
}

// Clear zeroes every channel in the bundle. It is called by ClearAll;
// Pipeline.Process clears pipeline-output streams through
// AudioStream.Clear instead.
func (b *Bundle) Clear() {
	clear(b.data)
}

// BundleSlot locates a stream's channel run within the bundle arena: it
// occupies `Count` contiguous slots starting at `FirstSlot` within bundle
// `Bundle`.
type BundleSlot struct {
	Bundle    BundleID
	FirstSlot int
	Count     int
}

// BundleSequencer assigns channels to bundle slots such that every stream
// occupies a contiguous run of slots when possible and every slot is used
// at most once (spec §4.1). Assignment is deterministic in stream addition
// order, so two identical topologies produce identical layouts.
type BundleSequencer struct {
	mu           sync.Mutex
	width        int
	periodFrames int
	capacity     int // total provisioned slots (width * numBundles)
	used         int
	bundles      []*Bundle
}

// NewBundleSequencer provisions enough bundles to hold totalChannels,
// using the bundle width the CPU supports (or an explicit override via
// width > 0, used by tests to pin a deterministic width).
func NewBundleSequencer(totalChannels, periodFrames, width int) *BundleSequencer {
	if width <= 0 {
		width = DetectBundleWidth()
	}
	numBundles := (totalChannels + width - 1) / width
	if numBundles == 0 {
		numBundles = 1
	}
	bundles := make([]*Bundle, numBundles)
	for i := range bundles {
		bundles[i] = newBundle(BundleID(i), width, periodFrames)
	}
	return &BundleSequencer{
		width:        width,
		periodFrames: periodFrames,
		capacity:     numBundles * width,
		bundles:      bundles,
	}
}

// Width reports the channels-per-bundle this sequencer was provisioned
// with.
func (s *BundleSequencer) Width() int { return s.width }

// Assign reserves `channels` contiguous slots for one stream, starting at
// the next free slot and spilling into the following bundle when the
// current one fills up. Slots are packed strictly in order: a stream that
// starts near the end of a bundle is split across bundles even when its
// channel count would fit in a single bundle. Returns
// one BundleSlot per bundle the stream's channels land in, in slot order.
// Fails NoCapacity if the caller adds more channels than were provisioned.
func (s *BundleSequencer) Assign(channels int) ([]BundleSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if channels <= 0 {
		return nil, invalidArg("channel count must be positive")
	}
	if s.used+channels > s.capacity {
		return nil, noCapacity("bundle sequencer exhausted", s.capacity, s.used, channels)
	}

	var slots []BundleSlot
	remaining := channels
	pos := s.used
	for remaining > 0 {
		bundleIdx := pos / s.width
		slotInBundle := pos % s.width
		avail := s.width - slotInBundle
		take := remaining
		if take > avail {
			take = avail
		}
		slots = append(slots, BundleSlot{
			Bundle:    BundleID(bundleIdx),
			FirstSlot: slotInBundle,
			Count:     take,
		})
		pos += take
		remaining -= take
	}
	s.used += channels
	return slots, nil
}

// Bundle returns the bundle with the given ID.
func (s *BundleSequencer) Bundle(id BundleID) *Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundles[id]
}

// Bundles returns every provisioned bundle, in ID order.
func (s *BundleSequencer) Bundles() []*Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Bundle, len(s.bundles))
	copy(out, s.bundles)
	return out
}

// ClearAll zeroes every bundle. Pipeline.Process does not call it; it
// clears only its pipeline-output streams' channels.
func (s *BundleSequencer) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bundles {
		b.Clear()
	}
}

