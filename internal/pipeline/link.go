package pipeline

import "github.com/google/uuid"

// LinkKind distinguishes an immediate edge (data must be available the same
// period) from a delayed edge (data is the prior period's output, used to
// break feedback cycles at schedule time).
type LinkKind int

const (
	Immediate LinkKind = iota
	Delayed
)

// LinkID is a stable identifier for a Link.
type LinkID uuid.UUID

func (id LinkID) String() string { return uuid.UUID(id).String() }

// Link is a directed edge from an output pin to an input pin. Invariants
// enforced by Pipeline.Link: at most one incoming link per input pin, at
// most one outgoing link per output pin, equal channel counts on both
// ends, and (for Immediate links) no cycle in the immediate-edge subgraph.
type Link struct {
	ID   LinkID
	From PinID
	To   PinID
	Kind LinkKind
}

func newLink(from, to PinID, kind LinkKind) *Link {
	return &Link{ID: LinkID(uuid.New()), From: from, To: to, Kind: kind}
}
