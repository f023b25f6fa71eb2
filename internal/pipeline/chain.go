package pipeline

import (
	"log/slog"
	"sync"

	"github.com/smartxaudio/rtpipeline/internal/logging"
)

// InputPort is the pipeline-facing contract for a routing zone's source
// ring buffer (spec §1: "assumed... its implementation is not specified
// here"). Read copies up to len(buf[0]) frames into each channel buffer,
// returning how many frames were actually available; a short read is the
// caller's signal that the source is running low.
type InputPort interface {
	Channels() int
	Read(buf [][]float32) (framesRead int, err error)
}

// OutputPort is the pipeline-facing contract for a routing zone's sink
// ring buffer.
type OutputPort interface {
	Channels() int
	Write(buf [][]float32) error
}

type stepKind int

const (
	stepModule stepKind = iota
	stepCopyImmediate
)

type executionStep struct {
	kind   stepKind
	module *ProcessingModule
	link   *Link
}

// Pipeline holds the pin map, the module map, the ordered scheduling list,
// the list of audio streams, its audio-chain environment (period size,
// sample rate), and the bundle sequencer backing every stream (spec §3).
type Pipeline struct {
	mu sync.Mutex

	periodFrames int
	sampleRate   int

	pins        map[PinID]*Pin
	pinsByOwner map[string][]*Pin // boundary pins keyed by "" ; module pins by instance name
	modules     map[string]*ProcessingModule
	moduleOrder []string
	links       []*Link

	frozen bool

	seq         *BundleSequencer
	streams     []*AudioStream
	streamByPin map[PinID]*AudioStream
	streamsByZone map[string]*AudioStream

	steps       []executionStep
	delayLinks  []*Link
	delaySnapshot map[LinkID][][]float32

	inputAccum map[PinID]int

	Dispatcher *CmdDispatcher

	logger *slog.Logger
}

// NewPipeline constructs an empty, unfrozen pipeline for the given period
// size (frames per process() call) and sample rate (Hz, used only to
// convert ramp times to periods at the control-plane boundary).
func NewPipeline(periodFrames, sampleRate int) *Pipeline {
	logger := logging.ForService("pipeline")
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		periodFrames:  periodFrames,
		sampleRate:    sampleRate,
		pins:          make(map[PinID]*Pin),
		pinsByOwner:   make(map[string][]*Pin),
		modules:       make(map[string]*ProcessingModule),
		streamByPin:   make(map[PinID]*AudioStream),
		streamsByZone: make(map[string]*AudioStream),
		delaySnapshot: make(map[LinkID][][]float32),
		inputAccum:    make(map[PinID]int),
		Dispatcher:    NewCmdDispatcher(),
		logger:        logger,
	}
}

// PeriodFrames returns the fixed number of frames processed per process()
// call.
func (p *Pipeline) PeriodFrames() int { return p.periodFrames }

// SampleRate returns the pipeline's configured sample rate in Hz.
func (p *Pipeline) SampleRate() int { return p.sampleRate }

func (p *Pipeline) requireUnfrozen(op string) error {
	if p.frozen {
		return alreadyInitialized("pipeline: " + op + " called after initAudioChain")
	}
	return nil
}

// AddAudioInputPin creates a pipeline-input boundary pin.
func (p *Pipeline) AddAudioInputPin(name string, channels int) (*Pin, error) {
	if err := p.requireUnfrozen("addAudioInputPin"); err != nil {
		return nil, err
	}
	return p.addBoundaryPin(name, PipelineInput, channels)
}

// AddAudioOutputPin creates a pipeline-output boundary pin.
func (p *Pipeline) AddAudioOutputPin(name string, channels int) (*Pin, error) {
	if err := p.requireUnfrozen("addAudioOutputPin"); err != nil {
		return nil, err
	}
	return p.addBoundaryPin(name, PipelineOutput, channels)
}

// AddAudioInOutPin creates a pipeline-owned in-place boundary pin. Rare in
// practice (most topologies route input pins through modules to output
// pins) but kept for parity with spec §4.3's construction operation list.
func (p *Pipeline) AddAudioInOutPin(name string, channels int) (*Pin, error) {
	if err := p.requireUnfrozen("addAudioInOutPin"); err != nil {
		return nil, err
	}
	return p.addBoundaryPin(name, ModuleInOut, channels)
}

func (p *Pipeline) addBoundaryPin(name string, dir PinDirection, channels int) (*Pin, error) {
	if name == "" {
		return nil, invalidArg("pin name must not be empty")
	}
	if channels <= 0 {
		return nil, invalidArg("pin channel count must be positive")
	}
	pin := newPin(name, dir, channels, "")
	p.pins[pin.ID] = pin
	p.pinsByOwner[""] = append(p.pinsByOwner[""], pin)
	return pin, nil
}

// AddProcessingModule attaches a module to the pipeline and registers its
// command interface with the dispatcher.
func (p *Pipeline) AddProcessingModule(m *ProcessingModule) error {
	if err := p.requireUnfrozen("addProcessingModule"); err != nil {
		return err
	}
	if m == nil {
		return invalidArg("processing module must not be nil")
	}
	if _, exists := p.modules[m.InstanceName]; exists {
		return invalidArgf("module instance %q already added", m.InstanceName)
	}
	p.modules[m.InstanceName] = m
	p.moduleOrder = append(p.moduleOrder, m.InstanceName)
	for _, pin := range m.Pins() {
		p.pins[pin.ID] = pin
	}
	p.pinsByOwner[m.InstanceName] = m.Pins()
	if m.Cmd != nil {
		if err := p.Dispatcher.Register(m.InstanceName, m.Cmd); err != nil {
			return err
		}
	}
	return nil
}

// RemoveProcessingModule detaches a module and its pins from the pipeline.
func (p *Pipeline) RemoveProcessingModule(instanceName string) error {
	if err := p.requireUnfrozen("removeProcessingModule"); err != nil {
		return err
	}
	m, ok := p.modules[instanceName]
	if !ok {
		return invalidArgf("module instance %q not found", instanceName)
	}
	for _, pin := range m.Pins() {
		delete(p.pins, pin.ID)
	}
	delete(p.pinsByOwner, instanceName)
	delete(p.modules, instanceName)
	for i, name := range p.moduleOrder {
		if name == instanceName {
			p.moduleOrder = append(p.moduleOrder[:i], p.moduleOrder[i+1:]...)
			break
		}
	}
	p.Dispatcher.Unregister(instanceName)
	return nil
}

// AddAudioPinMapping records that module m bridges in to out (for modules
// that are not in-place).
func (p *Pipeline) AddAudioPinMapping(m *ProcessingModule, in, out *Pin) error {
	if err := p.requireUnfrozen("addAudioPinMapping"); err != nil {
		return err
	}
	if m == nil {
		return invalidArg("module must not be nil")
	}
	return m.AddPinMapping(in, out)
}

// Link creates a directed edge from an output-capable pin to an
// input-capable pin. Fails InvalidArg on channel-count mismatch or if
// either pin already has a conflicting link (at most one incoming link per
// input pin, at most one outgoing link per output pin).
func (p *Pipeline) Link(from, to *Pin, kind LinkKind) (*Link, error) {
	if err := p.requireUnfrozen("link"); err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, invalidArg("link requires non-nil pins")
	}
	if from.Direction == PipelineOutput || from.Direction == ModuleInput {
		return nil, invalidArg("link source must be an output-capable pin")
	}
	if to.Direction == PipelineInput || to.Direction == ModuleOutput {
		return nil, invalidArg("link destination must be an input-capable pin")
	}
	if from.Channels != to.Channels {
		return nil, invalidArgf("link channel mismatch: %d vs %d", from.Channels, to.Channels)
	}
	for _, l := range p.links {
		if l.From == from.ID {
			return nil, invalidArgf("output pin %s already has an outgoing link", from.Name)
		}
		if l.To == to.ID {
			return nil, invalidArgf("input pin %s already has an incoming link", to.Name)
		}
	}
	link := newLink(from.ID, to.ID, kind)
	p.links = append(p.links, link)
	return link, nil
}

// Unlink removes a previously created link.
func (p *Pipeline) Unlink(link *Link) error {
	if err := p.requireUnfrozen("unlink"); err != nil {
		return err
	}
	for i, l := range p.links {
		if l.ID == link.ID {
			p.links = append(p.links[:i], p.links[i+1:]...)
			return nil
		}
	}
	return invalidArg("link not found")
}

// Pin looks up any pin (boundary or module-owned) by ID.
func (p *Pipeline) Pin(id PinID) (*Pin, bool) {
	pin, ok := p.pins[id]
	return pin, ok
}

// Module looks up a processing module by instance name.
func (p *Pipeline) Module(instanceName string) (*ProcessingModule, bool) {
	m, ok := p.modules[instanceName]
	return m, ok
}

func (p *Pipeline) incomingLink(pinID PinID) *Link {
	for _, l := range p.links {
		if l.To == pinID {
			return l
		}
	}
	return nil
}

func (p *Pipeline) outgoingLink(pinID PinID) *Link {
	for _, l := range p.links {
		if l.From == pinID {
			return l
		}
	}
	return nil
}

// InitAudioChain performs the scheduling algorithm of spec §4.3: seed pin
// availability, repeatedly schedule any module whose inputs are all
// available, fail CyclicDependency if none can be scheduled while modules
// remain, then allocate streams and freeze the graph against further
// mutation.
func (p *Pipeline) InitAudioChain() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireUnfrozen("initAudioChain"); err != nil {
		return err
	}

	available := make(map[PinID]bool, len(p.pins))
	for _, pin := range p.pins {
		if pin.Direction == PipelineInput {
			available[pin.ID] = true
			continue
		}
		if link := p.incomingLink(pin.ID); link != nil && link.Kind == Delayed {
			available[pin.ID] = true
			continue
		}
		available[pin.ID] = false
	}

	var steps []executionStep

	// Propagate from pins already available at period start whose source
	// is not a module (e.g. a pipeline-input pin linked straight through
	// to a pipeline-output pin, or a delayed-link destination that itself
	// immediately feeds onward).
	for _, pin := range p.pins {
		if !available[pin.ID] {
			continue
		}
		if link := p.outgoingLink(pin.ID); link != nil && link.Kind == Immediate && !available[link.To] {
			available[link.To] = true
			steps = append(steps, executionStep{kind: stepCopyImmediate, link: link})
		}
	}

	remaining := make([]*ProcessingModule, 0, len(p.moduleOrder))
	for _, name := range p.moduleOrder {
		remaining = append(remaining, p.modules[name])
	}

	var scheduled []*ProcessingModule
	for len(remaining) > 0 {
		progressed := false
		var stillRemaining []*ProcessingModule
		for _, m := range remaining {
			ready := true
			for _, pin := range m.Pins() {
				if (pin.Direction == ModuleInput || pin.Direction == ModuleInOut) && !available[pin.ID] {
					ready = false
					break
				}
			}
			if !ready {
				stillRemaining = append(stillRemaining, m)
				continue
			}

			scheduled = append(scheduled, m)
			steps = append(steps, executionStep{kind: stepModule, module: m})
			progressed = true

			for _, pin := range m.Pins() {
				if pin.Direction != ModuleOutput && pin.Direction != ModuleInOut {
					continue
				}
				available[pin.ID] = true
				if link := p.outgoingLink(pin.ID); link != nil && link.Kind == Immediate {
					available[link.To] = true
					steps = append(steps, executionStep{kind: stepCopyImmediate, link: link})
				}
			}
		}
		if !progressed {
			names := make([]string, 0, len(remaining))
			for _, m := range remaining {
				names = append(names, m.InstanceName)
			}
			return cyclicDependency("initAudioChain: immediate-edge subgraph is cyclic among " + joinNames(names))
		}
		remaining = stillRemaining
	}

	if err := p.allocateStreams(); err != nil {
		return err
	}

	for _, l := range p.links {
		if l.Kind == Delayed {
			p.delayLinks = append(p.delayLinks, l)
			p.delaySnapshot[l.ID] = zeroedChannels(p.pinForLink(l.From).Channels, p.periodFrames)
		}
	}

	p.steps = steps
	p.frozen = true
	p.logger.Info("audio chain initialized",
		"modules", len(scheduled),
		"streams", len(p.streams),
		"delayed_links", len(p.delayLinks))
	return nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

func (p *Pipeline) pinForLink(id PinID) *Pin {
	return p.pins[id]
}

func zeroedChannels(channels, periodFrames int) [][]float32 {
	buf := make([][]float32, channels)
	for i := range buf {
		buf[i] = make([]float32, periodFrames)
	}
	return buf
}

// allocateStreams implements spec §4.3 step 4: module-internal in-out and
// 1:1-mapped pin pairs sharing a channel count collapse to one stream;
// boundary pins each get their own stream; differing-channel-count
// mappings get distinct intermediate streams bridged by the module.
func (p *Pipeline) allocateStreams() error {
	totalChannels := 0
	for _, pin := range p.pins {
		totalChannels += pin.Channels
	}
	p.seq = NewBundleSequencer(totalChannels, p.periodFrames, 0)

	assign := func(name string, kind StreamKind, channels int) (*AudioStream, error) {
		s, err := newAudioStream(name, kind, channels, p.seq, p.periodFrames)
		if err != nil {
			return nil, err
		}
		p.streams = append(p.streams, s)
		return s, nil
	}

	assigned := make(map[PinID]bool)

	for _, pin := range p.pinsByOwner[""] {
		kind := StreamModuleInternal
		switch pin.Direction {
		case PipelineInput:
			kind = StreamPipelineInput
		case PipelineOutput:
			kind = StreamPipelineOutput
		}
		s, err := assign(pin.Name, kind, pin.Channels)
		if err != nil {
			return err
		}
		p.streamByPin[pin.ID] = s
		assigned[pin.ID] = true
	}

	for _, name := range p.moduleOrder {
		m := p.modules[name]

		for _, pin := range m.Pins() {
			if pin.Direction != ModuleInOut || assigned[pin.ID] {
				continue
			}
			s, err := assign(name+"."+pin.Name, StreamModuleInternal, pin.Channels)
			if err != nil {
				return err
			}
			p.streamByPin[pin.ID] = s
			assigned[pin.ID] = true
		}

		for _, mapping := range m.Mappings() {
			if assigned[mapping.In.ID] && assigned[mapping.Out.ID] {
				continue
			}
			if mapping.In.Channels == mapping.Out.Channels {
				s, err := assign(name+"."+mapping.In.Name, StreamModuleInternal, mapping.In.Channels)
				if err != nil {
					return err
				}
				p.streamByPin[mapping.In.ID] = s
				p.streamByPin[mapping.Out.ID] = s
				assigned[mapping.In.ID] = true
				assigned[mapping.Out.ID] = true
				continue
			}
			if !assigned[mapping.In.ID] {
				s, err := assign(name+"."+mapping.In.Name, StreamIntermediate, mapping.In.Channels)
				if err != nil {
					return err
				}
				p.streamByPin[mapping.In.ID] = s
				assigned[mapping.In.ID] = true
			}
			if !assigned[mapping.Out.ID] {
				s, err := assign(name+"."+mapping.Out.Name, StreamIntermediate, mapping.Out.Channels)
				if err != nil {
					return err
				}
				p.streamByPin[mapping.Out.ID] = s
				assigned[mapping.Out.ID] = true
			}
		}

		for _, pin := range m.Pins() {
			if assigned[pin.ID] {
				continue
			}
			s, err := assign(name+"."+pin.Name, StreamModuleInternal, pin.Channels)
			if err != nil {
				return err
			}
			p.streamByPin[pin.ID] = s
			assigned[pin.ID] = true
		}
	}

	return nil
}

// StreamForPin returns the stream backing a pin, valid only after
// InitAudioChain.
func (p *Pipeline) StreamForPin(pin *Pin) (*AudioStream, bool) {
	s, ok := p.streamByPin[pin.ID]
	return s, ok
}

// BindZone associates an opaque routing-zone identifier with the stream
// backing pin, so StreamForZone can find it without walking all output
// pins (SUPPLEMENTED FEATURES: getOutputStream(zoneId)).
func (p *Pipeline) BindZone(zoneID string, pin *Pin) error {
	s, ok := p.streamByPin[pin.ID]
	if !ok {
		return invalidArg("pin has no backing stream (has InitAudioChain run?)")
	}
	s.SetZoneID(zoneID)
	p.streamsByZone[zoneID] = s
	return nil
}

// StreamForZone looks up the output stream bound to a zone identifier.
func (p *Pipeline) StreamForZone(zoneID string) (*AudioStream, bool) {
	s, ok := p.streamsByZone[zoneID]
	return s, ok
}

// ProvideInputData copies up to framesToRead frames from port into the
// channel buffers of pin, zero-padding a short read, and returns the
// number of frames still needed to complete the current period (spec
// §4.3). Call repeatedly per pin until framesRemaining reaches zero, then
// call Process.
func (p *Pipeline) ProvideInputData(pin *Pin, port InputPort, framesToRead int) (framesRemaining int, err error) {
	if !p.frozen {
		return 0, notInitialized("provideInputData called before initAudioChain")
	}
	if pin.Direction != PipelineInput {
		return 0, invalidArg("provideInputData: pin is not a pipeline-input pin")
	}
	if port.Channels() != pin.Channels {
		return 0, invalidArgf("provideInputData: port has %d channels, pin has %d", port.Channels(), pin.Channels)
	}
	stream := p.streamByPin[pin.ID]

	offset := p.inputAccum[pin.ID]
	toRead := framesToRead
	if offset+toRead > p.periodFrames {
		toRead = p.periodFrames - offset
	}
	if toRead <= 0 {
		return p.periodFrames - offset, nil
	}

	buf := make([][]float32, pin.Channels)
	for ch := range buf {
		buf[ch] = make([]float32, toRead)
	}
	n, rerr := port.Read(buf)
	if rerr != nil {
		return 0, ioFailed("provideInputData", rerr)
	}

	for ch := 0; ch < pin.Channels; ch++ {
		dst := stream.BundledChannel(ch)[offset : offset+toRead]
		copied := copy(dst, buf[ch][:n])
		for i := copied; i < len(dst); i++ {
			dst[i] = 0
		}
	}

	p.inputAccum[pin.ID] = offset + toRead
	return p.periodFrames - p.inputAccum[pin.ID], nil
}

// Process runs one period: clears pipeline-output streams, applies
// delayed-link snapshots, executes every scheduled module (skipping
// disabled ones, per "no-work-when-disabled") interleaved with immediate
// link copies, then captures new delayed-link snapshots for next period.
func (p *Pipeline) Process() error {
	if !p.frozen {
		return notInitialized("process called before initAudioChain")
	}

	for _, s := range p.streams {
		if s.Kind == StreamPipelineOutput {
			s.Clear()
		}
	}

	for _, l := range p.delayLinks {
		toStream := p.streamByPin[l.To]
		snapshot := p.delaySnapshot[l.ID]
		vec := make([][]float32, len(snapshot))
		copy(vec, snapshot)
		if err := toStream.WriteFromNonInterleaved(vec); err != nil {
			return err
		}
	}

	for _, step := range p.steps {
		switch step.kind {
		case stepModule:
			if !step.module.Enabled() || step.module.Core == nil {
				continue
			}
			if err := step.module.Core.ProcessChild(); err != nil {
				return errPipelineProcessing(step.module.InstanceName, err)
			}
		case stepCopyImmediate:
			fromPin := p.pins[step.link.From]
			toPin := p.pins[step.link.To]
			fromStream := p.streamByPin[fromPin.ID]
			toStream := p.streamByPin[toPin.ID]
			if fromStream.ID == toStream.ID {
				continue // already the same backing stream, nothing to copy
			}
			for ch := 0; ch < fromPin.Channels; ch++ {
				copy(toStream.BundledChannel(ch), fromStream.BundledChannel(ch))
			}
		}
	}

	for _, l := range p.delayLinks {
		fromStream := p.streamByPin[l.From]
		snapshot := p.delaySnapshot[l.ID]
		for ch := range snapshot {
			copy(snapshot[ch], fromStream.BundledChannel(ch))
		}
	}

	for pin := range p.inputAccum {
		p.inputAccum[pin] = 0
	}

	return nil
}

// RetrieveOutputData copies numFrames samples starting at offset from the
// stream backing pin into port, converting non-interleaved float32
// exactly as read (format conversion to the destination device format, if
// any, is the OutputPort implementation's concern).
func (p *Pipeline) RetrieveOutputData(pin *Pin, port OutputPort, numFrames, offset int) error {
	if !p.frozen {
		return notInitialized("retrieveOutputData called before initAudioChain")
	}
	if pin.Direction != PipelineOutput {
		return invalidArg("retrieveOutputData: pin is not a pipeline-output pin")
	}
	if port.Channels() != pin.Channels {
		return invalidArgf("retrieveOutputData: port has %d channels, pin has %d", port.Channels(), pin.Channels)
	}
	stream := p.streamByPin[pin.ID]

	buf := make([][]float32, pin.Channels)
	for ch := 0; ch < pin.Channels; ch++ {
		full := stream.BundledChannel(ch)
		end := offset + numFrames
		if end > len(full) {
			end = len(full)
		}
		buf[ch] = full[offset:end]
	}
	if err := port.Write(buf); err != nil {
		return ioFailed("retrieveOutputData", err)
	}
	return nil
}

func errPipelineProcessing(moduleName string, err error) error {
	return wrapProcessing(moduleName, err)
}
