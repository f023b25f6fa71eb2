package pipeline

import "sync/atomic"

// Core is the DSP half of a ProcessingModule: the per-period signal
// processing. ProcessChild is invoked by Pipeline.Process once per
// scheduled period, only while the module is enabled. Implementations
// must not allocate inside ProcessChild (spec §5: "no allocation is
// permitted inside process").
type Core interface {
	// ProcessChild runs this module's DSP for the current period against
	// the streams bound to its pins by initAudioChain.
	ProcessChild() error
}

// CmdInterface is the control half of a ProcessingModule: the command
// dispatch target registered with the CmdDispatcher under the module's
// instance name (spec §4.4).
type CmdInterface interface {
	// ProcessCmd executes a single command described by cmdProps,
	// populating returnProps (already cleared by the dispatcher) with any
	// response values.
	ProcessCmd(cmdProps *Properties, returnProps *Properties) error
}

// PinMapping records that a non-in-place module reads In and writes Out
// across a pin pair sharing possibly different channel counts (spec §4.3,
// "pins with differing channel counts ... get distinct input and output
// streams bridged by the module").
type PinMapping struct {
	In  *Pin
	Out *Pin
}

// ProcessingModule wraps a Core (DSP) and a CmdInterface (control) behind
// a type name, instance name, configuration, and the pins it exposes. It
// is the unit Pipeline schedules. A module's enable bit gates its
// per-period invocation; a disabled module leaves every output buffer
// exactly as the previous period left it (spec §3, §4.3).
type ProcessingModule struct {
	TypeName     string
	InstanceName string
	Config       *Properties
	Core         Core
	Cmd          CmdInterface

	pins     map[string]*Pin
	pinOrder []string
	mappings []PinMapping

	enabled atomic.Bool
}

// NewProcessingModule constructs a module in the enabled state. Core and
// Cmd may be nil only for test fixtures that exercise scheduling without
// DSP; Pipeline.Process skips a nil Core the same way it skips a disabled
// module.
func NewProcessingModule(typeName, instanceName string, core Core, cmd CmdInterface) *ProcessingModule {
	m := &ProcessingModule{
		TypeName:     typeName,
		InstanceName: instanceName,
		Config:       NewProperties(),
		Core:         core,
		Cmd:          cmd,
		pins:         make(map[string]*Pin),
	}
	m.enabled.Store(true)
	return m
}

// Enabled reports the module's current enable bit.
func (m *ProcessingModule) Enabled() bool { return m.enabled.Load() }

// SetEnabled flips the module's enable bit; read at period boundaries by
// Pipeline.Process (spec §5: "the processing loop reads at period
// boundaries").
func (m *ProcessingModule) SetEnabled(enabled bool) { m.enabled.Store(enabled) }

// AddPin creates and attaches a module-owned pin (ModuleInput, ModuleOutput,
// or ModuleInOut) to this module.
func (m *ProcessingModule) AddPin(name string, dir PinDirection, channels int) (*Pin, error) {
	if name == "" {
		return nil, invalidArg("pin name must not be empty")
	}
	if _, exists := m.pins[name]; exists {
		return nil, invalidArgf("module %s already has a pin named %s", m.InstanceName, name)
	}
	if dir == PipelineInput || dir == PipelineOutput {
		return nil, invalidArg("module pins must be module-input, module-output, or module-in-out")
	}
	pin := newPin(name, dir, channels, m.InstanceName)
	m.pins[name] = pin
	m.pinOrder = append(m.pinOrder, name)
	return pin, nil
}

// Pin looks up a pin this module exposes by name.
func (m *ProcessingModule) Pin(name string) (*Pin, bool) {
	p, ok := m.pins[name]
	return p, ok
}

// Pins returns every pin this module exposes, in the order they were
// added.
func (m *ProcessingModule) Pins() []*Pin {
	out := make([]*Pin, 0, len(m.pinOrder))
	for _, name := range m.pinOrder {
		out = append(out, m.pins[name])
	}
	return out
}

// AddPinMapping records that data entering `in` is bridged by this module
// to `out`, for modules that are not in-place (spec §4.3).
func (m *ProcessingModule) AddPinMapping(in, out *Pin) error {
	if in == nil || out == nil {
		return invalidArg("pin mapping requires non-nil pins")
	}
	m.mappings = append(m.mappings, PinMapping{In: in, Out: out})
	return nil
}

// Mappings returns the module's recorded pin-to-pin mappings.
func (m *ProcessingModule) Mappings() []PinMapping {
	return m.mappings
}
