package nn

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/baldhumanity/neat-engine/neat"
)

// nodeEval holds everything needed to compute one node's value.
type nodeEval struct {
	Key         int
	Bias        float64
	Response    float64
	Activation  neat.ActivationType
	Aggregation neat.AggregationType
	Links       []link
}

type link struct {
	From   int
	Weight float64
}

// FeedForwardNetwork is the phenotype of a genome without cycles.
type FeedForwardNetwork struct {
	InputKeys  []int
	OutputKeys []int
	Evals      []nodeEval // In topological order.

	values map[int]float64
}

// CreateFeedForwardNetwork builds a runnable network from a genome. Only
// enabled connections are expressed, and only nodes the outputs depend on
// are evaluated.
func CreateFeedForwardNetwork(g *neat.Genome, config *neat.GenomeConfig) (*FeedForwardNetwork, error) {
	var enabled []neat.ConnectionKey
	for key, cg := range g.Connections {
		if cg.Enabled {
			enabled = append(enabled, key)
		}
	}
	required := neat.RequiredForOutput(config.InputKeys, config.OutputKeys, enabled)

	isInput := make(map[int]bool, len(config.InputKeys))
	for _, k := range config.InputKeys {
		isInput[k] = true
	}

	keys := make([]int, 0, len(required))
	for k := range required {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	dg := simple.NewDirectedGraph()
	for _, k := range keys {
		dg.AddNode(simple.Node(k))
	}
	incoming := make(map[int][]link, len(keys))
	for _, key := range enabled {
		if !required[key.OutNodeID] || !(required[key.InNodeID] || isInput[key.InNodeID]) {
			continue
		}
		if key.InNodeID == key.OutNodeID {
			return nil, fmt.Errorf("genome %d: self-connection on node %d", g.Key, key.InNodeID)
		}
		incoming[key.OutNodeID] = append(incoming[key.OutNodeID], link{From: key.InNodeID, Weight: g.Connections[key].Weight})
		if required[key.InNodeID] {
			dg.SetEdge(simple.Edge{F: simple.Node(key.InNodeID), T: simple.Node(key.OutNodeID)})
		}
	}

	order, err := topo.SortStabilized(dg, byID)
	if err != nil {
		return nil, fmt.Errorf("genome %d is not feed-forward: %w", g.Key, err)
	}

	net := &FeedForwardNetwork{
		InputKeys:  slices.Clone(config.InputKeys),
		OutputKeys: slices.Clone(config.OutputKeys),
		Evals:      make([]nodeEval, 0, len(order)),
		values:     make(map[int]float64, len(config.InputKeys)+len(order)),
	}
	for _, n := range order {
		key := int(n.ID())
		ng, ok := g.Nodes[key]
		if !ok {
			return nil, fmt.Errorf("genome %d: connection references missing node %d", g.Key, key)
		}
		act, err := neat.GetActivation(ng.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		agg, err := neat.GetAggregation(ng.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		links := incoming[key]
		slices.SortFunc(links, func(a, b link) int { return cmp.Compare(a.From, b.From) })
		net.Evals = append(net.Evals, nodeEval{
			Key:         key,
			Bias:        ng.Bias,
			Response:    ng.Response,
			Activation:  act,
			Aggregation: agg,
			Links:       links,
		})
	}
	return net, nil
}

func byID(nodes []graph.Node) {
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
}

// Activate computes the outputs for one input vector. The network is not
// safe for concurrent use; build one network per goroutine.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputKeys) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(net.InputKeys), len(inputs))
	}
	clear(net.values)
	for i, k := range net.InputKeys {
		net.values[k] = inputs[i]
	}

	var buf []float64
	for _, ev := range net.Evals {
		buf = buf[:0]
		for _, l := range ev.Links {
			buf = append(buf, net.values[l.From]*l.Weight)
		}
		net.values[ev.Key] = ev.Activation(ev.Bias + ev.Response*ev.Aggregation(buf))
	}

	outputs := make([]float64, len(net.OutputKeys))
	for i, k := range net.OutputKeys {
		outputs[i] = net.values[k]
	}
	return outputs, nil
}
