package neat

import "fmt"

// MutationKind distinguishes structural mutations that may touch the same node pair.
type MutationKind string

const (
	KindAddConnection     MutationKind = "add_connection"
	KindAddNodeIn         MutationKind = "add_node_in"
	KindAddNodeOut        MutationKind = "add_node_out"
	KindInitialConnection MutationKind = "initial_connection"
)

// InnovationKey identifies one structural mutation within a generation.
type InnovationKey struct {
	InNode  int
	OutNode int
	Kind    MutationKind
}

// InnovationTracker hands out historical markings. The global counter never
// goes back; the per-generation table only deduplicates identical mutations
// that happen in the same generation.
//
// It also allocates node ids for add-node mutations, so two genomes splitting
// the same connection in one generation get the same hidden node id.
type InnovationTracker struct {
	GlobalCounter int
	Generation    map[InnovationKey]int

	NodeCounter int
	SplitNodes  map[ConnectionKey]int
}

// NewInnovationTracker returns a tracker whose first hidden node id is firstNodeID.
func NewInnovationTracker(firstNodeID int) *InnovationTracker {
	return &InnovationTracker{
		Generation:  make(map[InnovationKey]int),
		NodeCounter: firstNodeID,
		SplitNodes:  make(map[ConnectionKey]int),
	}
}

// GetInnovationNumber returns the innovation number of the mutation, assigning
// a fresh one the first time the triple is seen this generation.
func (t *InnovationTracker) GetInnovationNumber(inNode, outNode int, kind MutationKind) int {
	if t.Generation == nil {
		t.Generation = make(map[InnovationKey]int)
	}
	key := InnovationKey{InNode: inNode, OutNode: outNode, Kind: kind}
	if n, ok := t.Generation[key]; ok {
		return n
	}
	t.GlobalCounter++
	t.Generation[key] = t.GlobalCounter
	return t.GlobalCounter
}

// SplitNodeID returns the hidden node id created by splitting the given connection.
func (t *InnovationTracker) SplitNodeID(split ConnectionKey) int {
	if t.SplitNodes == nil {
		t.SplitNodes = make(map[ConnectionKey]int)
	}
	if id, ok := t.SplitNodes[split]; ok {
		return id
	}
	id := t.NewNodeID()
	t.SplitNodes[split] = id
	return id
}

// NewNodeID allocates a node id never used before in this run.
func (t *InnovationTracker) NewNodeID() int {
	id := t.NodeCounter
	t.NodeCounter++
	return id
}

// ResetGeneration clears the per-generation tables. Counters are untouched.
func (t *InnovationTracker) ResetGeneration() {
	clear(t.Generation)
	clear(t.SplitNodes)
}

// Current returns the most recently assigned innovation number.
func (t *InnovationTracker) Current() int {
	return t.GlobalCounter
}

func (t *InnovationTracker) String() string {
	return fmt.Sprintf("InnovationTracker(global=%d, tracked=%d, nextNode=%d)",
		t.GlobalCounter, len(t.Generation), t.NodeCounter)
}
