package pipeline

import "github.com/google/uuid"

// PinDirection classifies a Pin's role at either a pipeline boundary or a
// module boundary.
type PinDirection int

const (
	PipelineInput PinDirection = iota
	PipelineOutput
	ModuleInput
	ModuleOutput
	ModuleInOut
)

func (d PinDirection) String() string {
	switch d {
	case PipelineInput:
		return "pipeline-input"
	case PipelineOutput:
		return "pipeline-output"
	case ModuleInput:
		return "module-input"
	case ModuleOutput:
		return "module-output"
	case ModuleInOut:
		return "module-in-out"
	default:
		return "unknown"
	}
}

// PinID is a stable identifier for a Pin, assigned once at creation and
// never reused (spec §9: "pins live in a pin arena keyed by id").
type PinID uuid.UUID

func (id PinID) String() string { return uuid.UUID(id).String() }

// Pin is a named I/O endpoint and a vertex of the dependency graph. A pin
// is owned by either a pipeline (boundary pins) or a module (internal
// pins); it belongs to at most one pipeline.
type Pin struct {
	ID        PinID
	Name      string
	Direction PinDirection
	Channels  int

	// OwnerModule is the instance name of the owning module, or "" for
	// pipeline boundary pins.
	OwnerModule string

	// streamID is assigned during initAudioChain; zero value before that.
	streamID StreamID
}

func newPin(name string, dir PinDirection, channels int, ownerModule string) *Pin {
	return &Pin{
		ID:          PinID(uuid.New()),
		Name:        name,
		Direction:   dir,
		Channels:    channels,
		OwnerModule: ownerModule,
	}
}

// IsBoundary reports whether this pin sits at the pipeline boundary rather
// than on a module.
func (p *Pin) IsBoundary() bool {
	return p.Direction == PipelineInput || p.Direction == PipelineOutput
}
