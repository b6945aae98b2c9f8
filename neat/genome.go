package neat

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes.
type Genome struct {
	Key         int                               // Unique identifier for this genome.
	Nodes       map[int]*NodeGene                 // Map node ID -> NodeGene
	Connections map[ConnectionKey]*ConnectionGene // Map connection key -> ConnectionGene
	Fitness     float64                           // NaN until evaluated.

	// SpeciesID is a hint inherited from the primary parent; speciation decides
	// the real assignment.
	SpeciesID int
	Parent1ID int
	Parent2ID int
}

// NewGenome creates an empty, unevaluated genome.
func NewGenome(key int) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Fitness:     math.NaN(),
		Parent1ID:   -1,
		Parent2ID:   -1,
	}
}

// HasFitness reports whether the genome has been evaluated.
func (g *Genome) HasFitness() bool {
	return !math.IsNaN(g.Fitness)
}

// ConfigureNew initializes a new genome based on the configuration.
// It creates output and hidden nodes, and sets up initial connections.
func (g *Genome) ConfigureNew(config *GenomeConfig, tracker *InnovationTracker, rng *RNG) {
	for _, nodeKey := range config.OutputKeys {
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, config, rng)
	}
	// Initial hidden nodes get the same ids in every genome so that
	// connections between them line up across the population.
	for i := 0; i < config.NumHidden; i++ {
		nodeKey := config.FirstHiddenNodeID() + i
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, config, rng)
	}

	var keys []ConnectionKey
	switch config.ConnectionScheme {
	case "unconnected":
	case "fs_neat_nohidden", "fs_neat":
		in := config.InputKeys[rng.IntN(len(config.InputKeys))]
		for _, out := range config.OutputKeys {
			keys = append(keys, ConnectionKey{in, out})
		}
	case "fs_neat_hidden":
		in := config.InputKeys[rng.IntN(len(config.InputKeys))]
		for _, out := range g.sortedNodeKeys() {
			keys = append(keys, ConnectionKey{in, out})
		}
	case "full_nodirect", "full":
		keys = g.fullConnections(config, false)
	case "full_direct":
		keys = g.fullConnections(config, true)
	case "partial_nodirect", "partial", "partial_direct":
		keys = g.fullConnections(config, config.ConnectionScheme == "partial_direct")
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		keys = keys[:int(math.RoundToEven(float64(len(keys))*config.ConnectionFraction))]
	default:
		panic(fmt.Sprintf("invalid initial_connection type in genome configuration: %s", config.ConnectionScheme))
	}

	for _, key := range keys {
		innovation := tracker.GetInnovationNumber(key.InNodeID, key.OutNodeID, KindInitialConnection)
		g.Connections[key] = NewConnectionGene(key, innovation, config, rng)
	}
}

// fullConnections connects each input to every hidden node and each hidden
// node to every output. Inputs connect straight to outputs when direct is set
// or there are no hidden nodes. Recurrent genomes also get self-connections.
func (g *Genome) fullConnections(config *GenomeConfig, direct bool) []ConnectionKey {
	var hidden, output []int
	for _, k := range g.sortedNodeKeys() {
		if config.isOutput(k) {
			output = append(output, k)
		} else {
			hidden = append(hidden, k)
		}
	}

	var keys []ConnectionKey
	for _, in := range config.InputKeys {
		for _, h := range hidden {
			keys = append(keys, ConnectionKey{in, h})
		}
	}
	for _, h := range hidden {
		for _, out := range output {
			keys = append(keys, ConnectionKey{h, out})
		}
	}
	if direct || len(hidden) == 0 {
		for _, in := range config.InputKeys {
			for _, out := range output {
				keys = append(keys, ConnectionKey{in, out})
			}
		}
	}
	if !config.FeedForward {
		for _, k := range g.sortedNodeKeys() {
			keys = append(keys, ConnectionKey{k, k})
		}
	}
	return keys
}

// ConfigureCrossover fills an empty genome from two parents. The parent with
// strictly higher fitness is primary; on a tie parent1 is. Homologous genes are
// taken whole from either parent at random, genes only the primary carries are
// copied, and genes only the secondary carries are dropped.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome, rng *RNG) {
	if parent2.Fitness > parent1.Fitness {
		parent1, parent2 = parent2, parent1
	}
	g.SpeciesID = parent1.SpeciesID

	for _, key := range parent1.sortedConnectionKeys() {
		cg1 := parent1.Connections[key]
		if cg2, ok := parent2.Connections[key]; ok && rng.Float64() < 0.5 {
			g.Connections[key] = cg2.Copy()
		} else {
			g.Connections[key] = cg1.Copy()
		}
	}
	for _, key := range parent1.sortedNodeKeys() {
		ng1 := parent1.Nodes[key]
		if ng2, ok := parent2.Nodes[key]; ok && rng.Float64() < 0.5 {
			g.Nodes[key] = ng2.Copy()
		} else {
			g.Nodes[key] = ng1.Copy()
		}
	}
}

// Mutate applies structural mutations followed by attribute mutations.
//
// By default each structural mutation has its own independent trial. With
// single_structural_mutation at most one of them fires per call.
func (g *Genome) Mutate(config *GenomeConfig, tracker *InnovationTracker, rng *RNG) {
	if config.SingleStructuralMutation {
		div := math.Max(1, config.NodeAddProb+config.NodeDeleteProb+config.ConnAddProb+config.ConnDeleteProb)
		r := rng.Float64()
		switch {
		case r < config.NodeAddProb/div:
			g.mutateAddNode(config, tracker, rng)
		case r < (config.NodeAddProb+config.NodeDeleteProb)/div:
			g.mutateDeleteNode(config, rng)
		case r < (config.NodeAddProb+config.NodeDeleteProb+config.ConnAddProb)/div:
			g.mutateAddConnection(config, tracker, rng)
		case r < (config.NodeAddProb+config.NodeDeleteProb+config.ConnAddProb+config.ConnDeleteProb)/div:
			g.mutateDeleteConnection(rng)
		}
	} else {
		if rng.Bernoulli(config.NodeAddProb) {
			g.mutateAddNode(config, tracker, rng)
		}
		if rng.Bernoulli(config.NodeDeleteProb) {
			g.mutateDeleteNode(config, rng)
		}
		if rng.Bernoulli(config.ConnAddProb) {
			g.mutateAddConnection(config, tracker, rng)
		}
		if rng.Bernoulli(config.ConnDeleteProb) {
			g.mutateDeleteConnection(rng)
		}
	}

	for _, key := range g.sortedConnectionKeys() {
		g.Connections[key].Mutate(config, rng)
	}
	for _, key := range g.sortedNodeKeys() {
		g.Nodes[key].Mutate(config, rng)
	}
}

// mutateAddNode splits a random enabled connection with a new hidden node.
func (g *Genome) mutateAddNode(config *GenomeConfig, tracker *InnovationTracker, rng *RNG) {
	var enabled []ConnectionKey
	for _, key := range g.sortedConnectionKeys() {
		if g.Connections[key].Enabled {
			enabled = append(enabled, key)
		}
	}
	if len(enabled) == 0 {
		if config.StructuralMutationSurerEnabled() {
			g.mutateAddConnection(config, tracker, rng)
		}
		return
	}

	split := g.Connections[enabled[rng.IntN(len(enabled))]]
	newNodeKey := tracker.SplitNodeID(split.Key)
	if _, exists := g.Nodes[newNodeKey]; exists {
		newNodeKey = tracker.NewNodeID()
	}
	g.Nodes[newNodeKey] = NewNodeGene(newNodeKey, config, rng)

	// The new node and connections roughly preserve the old behavior.
	split.Enabled = false
	in, out := split.Key.InNodeID, split.Key.OutNodeID
	g.addConnection(config, rng, ConnectionKey{in, newNodeKey}, 1.0,
		tracker.GetInnovationNumber(in, out, KindAddNodeIn))
	g.addConnection(config, rng, ConnectionKey{newNodeKey, out}, split.Weight,
		tracker.GetInnovationNumber(in, out, KindAddNodeOut))
}

func (g *Genome) addConnection(config *GenomeConfig, rng *RNG, key ConnectionKey, weight float64, innovation int) {
	cg := NewConnectionGene(key, innovation, config, rng)
	cg.Weight = weight
	cg.Enabled = true
	g.Connections[key] = cg
}

// mutateAddConnection samples one (input, output) pair and adds it as a new
// connection. The mutation is a no-op when the pair joins two outputs or the
// topology policy rejects it. An existing connection is re-enabled instead
// when structural mutation is surer.
func (g *Genome) mutateAddConnection(config *GenomeConfig, tracker *InnovationTracker, rng *RNG) {
	targets := g.sortedNodeKeys()
	if len(targets) == 0 {
		return
	}
	out := targets[rng.IntN(len(targets))]
	sources := append(targets, config.InputKeys...)
	in := sources[rng.IntN(len(sources))]

	key := ConnectionKey{in, out}
	if existing, ok := g.Connections[key]; ok {
		if config.StructuralMutationSurerEnabled() {
			existing.Enabled = true
		}
		return
	}
	if config.isOutput(in) && config.isOutput(out) {
		return
	}
	if !PolicyFor(config).AllowsConnection(g, key) {
		return
	}
	innovation := tracker.GetInnovationNumber(in, out, KindAddConnection)
	g.Connections[key] = NewConnectionGene(key, innovation, config, rng)
}

// mutateDeleteNode removes a random hidden node and every connection touching
// it. It refuses to remove the last connections of the genome.
func (g *Genome) mutateDeleteNode(config *GenomeConfig, rng *RNG) {
	var hidden []int
	for _, k := range g.sortedNodeKeys() {
		if !config.isOutput(k) {
			hidden = append(hidden, k)
		}
	}
	if len(hidden) == 0 {
		return
	}

	delKey := hidden[rng.IntN(len(hidden))]
	var touching []ConnectionKey
	for key := range g.Connections {
		if key.InNodeID == delKey || key.OutNodeID == delKey {
			touching = append(touching, key)
		}
	}
	if len(g.Connections) > 0 && len(touching) == len(g.Connections) {
		return
	}
	for _, key := range touching {
		delete(g.Connections, key)
	}
	delete(g.Nodes, delKey)
}

// mutateDeleteConnection removes a random connection unless it is the last one.
func (g *Genome) mutateDeleteConnection(rng *RNG) {
	if len(g.Connections) <= 1 {
		return
	}
	keys := g.sortedConnectionKeys()
	delete(g.Connections, keys[rng.IntN(len(keys))])
}

// Distance calculates the genetic distance between this genome and another:
//
//	(excess*E + disjoint*D) / N + weight * mean|w1-w2|
//
// E counts unmatched genes beyond the other genome's highest innovation number,
// D the remaining unmatched genes, N the larger connection count (at least 1),
// and the weight term averages over matching connection keys.
func (g *Genome) Distance(other *Genome, config *GenomeConfig) float64 {
	maxInnovation := func(genome *Genome) int {
		m := 0
		for _, cg := range genome.Connections {
			m = max(m, cg.Innovation)
		}
		return m
	}
	gMax, otherMax := maxInnovation(g), maxInnovation(other)

	excess, disjoint, matching := 0, 0, 0
	weightDiff := 0.0
	for _, key := range g.sortedConnectionKeys() {
		cg := g.Connections[key]
		if oc, ok := other.Connections[key]; ok {
			weightDiff += math.Abs(cg.Weight - oc.Weight)
			matching++
		} else if cg.Innovation > otherMax {
			excess++
		} else {
			disjoint++
		}
	}
	for key, oc := range other.Connections {
		if _, ok := g.Connections[key]; ok {
			continue
		}
		if oc.Innovation > gMax {
			excess++
		} else {
			disjoint++
		}
	}

	n := float64(max(len(g.Connections), len(other.Connections), 1))
	d := (config.CompatibilityExcessCoefficient*float64(excess) + config.CompatibilityDisjointCoefficient*float64(disjoint)) / n
	if matching > 0 {
		d += config.CompatibilityWeightCoefficient * weightDiff / float64(matching)
	}
	return d
}

// Size returns the genome's complexity as (number of nodes, number of enabled connections).
func (g *Genome) Size() (int, int) {
	enabled := 0
	for _, cg := range g.Connections {
		if cg.Enabled {
			enabled++
		}
	}
	return len(g.Nodes), enabled
}

// Copy creates a deep copy of the genome.
func (g *Genome) Copy() *Genome {
	c := &Genome{
		Key:         g.Key,
		Nodes:       make(map[int]*NodeGene, len(g.Nodes)),
		Connections: make(map[ConnectionKey]*ConnectionGene, len(g.Connections)),
		Fitness:     g.Fitness,
		SpeciesID:   g.SpeciesID,
		Parent1ID:   g.Parent1ID,
		Parent2ID:   g.Parent2ID,
	}
	for k, ng := range g.Nodes {
		c.Nodes[k] = ng.Copy()
	}
	for k, cg := range g.Connections {
		c.Connections[k] = cg.Copy()
	}
	return c
}

func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Key: %d\nFitness: %v\nNodes:", g.Key, g.Fitness)
	for _, k := range g.sortedNodeKeys() {
		fmt.Fprintf(&b, "\n\t%d %s", k, g.Nodes[k])
	}
	b.WriteString("\nConnections:")
	for _, k := range g.sortedConnectionKeys() {
		fmt.Fprintf(&b, "\n\t%s", g.Connections[k])
	}
	return b.String()
}

func (g *Genome) sortedNodeKeys() []int {
	keys := make([]int, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (g *Genome) sortedConnectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareConnectionKeys)
	return keys
}

func compareConnectionKeys(a, b ConnectionKey) int {
	if c := cmp.Compare(a.InNodeID, b.InNodeID); c != 0 {
		return c
	}
	return cmp.Compare(a.OutNodeID, b.OutNodeID)
}
