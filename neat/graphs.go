package neat

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// TopologyPolicy decides which new connections a genome may grow.
type TopologyPolicy interface {
	AllowsConnection(g *Genome, key ConnectionKey) bool
}

// FeedForwardPolicy rejects any connection that would close a cycle.
type FeedForwardPolicy struct{}

// AllowsConnection implements TopologyPolicy.
func (FeedForwardPolicy) AllowsConnection(g *Genome, key ConnectionKey) bool {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	return !CreatesCycle(keys, key)
}

// RecurrentPolicy allows every connection, including self-loops.
type RecurrentPolicy struct{}

// AllowsConnection implements TopologyPolicy.
func (RecurrentPolicy) AllowsConnection(*Genome, ConnectionKey) bool { return true }

// PolicyFor returns the topology policy selected by feed_forward.
func PolicyFor(config *GenomeConfig) TopologyPolicy {
	if config.FeedForward {
		return FeedForwardPolicy{}
	}
	return RecurrentPolicy{}
}

// CreatesCycle reports whether adding test to a network made of connections
// would create a cycle. Disabled connections count too, so re-enabling one
// later can never close a loop.
func CreatesCycle(connections []ConnectionKey, test ConnectionKey) bool {
	if test.InNodeID == test.OutNodeID {
		return true
	}

	g := simple.NewDirectedGraph()
	for _, c := range connections {
		if c.InNodeID == c.OutNodeID {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(c.InNodeID), T: simple.Node(c.OutNodeID)})
	}
	from, to := g.Node(int64(test.OutNodeID)), g.Node(int64(test.InNodeID))
	if from == nil || to == nil {
		return false
	}
	return topo.PathExistsIn(g, from, to)
}

// RequiredForOutput returns the nodes whose values are needed to compute the
// outputs. Inputs are never included; outputs always are.
func RequiredForOutput(inputs, outputs []int, connections []ConnectionKey) map[int]bool {
	isInput := make(map[int]bool, len(inputs))
	for _, in := range inputs {
		isInput[in] = true
	}

	required := make(map[int]bool, len(outputs))
	frontier := make(map[int]bool, len(outputs))
	for _, o := range outputs {
		required[o] = true
		frontier[o] = true
	}
	for {
		next := make(map[int]bool)
		for _, c := range connections {
			if frontier[c.OutNodeID] && !required[c.InNodeID] && !isInput[c.InNodeID] {
				next[c.InNodeID] = true
			}
		}
		if len(next) == 0 {
			return required
		}
		for n := range next {
			required[n] = true
		}
		frontier = next
	}
}
