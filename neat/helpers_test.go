package neat

import (
	"context"
	"math"
	"slices"
	"strings"
	"testing"
)

// testConfig returns a small validated configuration for engine tests.
func testConfig(t *testing.T, popSize int) *Config {
	t.Helper()
	cfg := DefaultConfig(2, 1)
	cfg.Neat.PopSize = popSize
	return cfg
}

// conn builds an enabled connection gene.
func conn(in, out int, weight float64, innovation int) *ConnectionGene {
	return &ConnectionGene{Key: ConnectionKey{in, out}, Weight: weight, Enabled: true, Innovation: innovation}
}

// genomeWith builds a genome with the given output/hidden node keys and connections.
func genomeWith(key int, nodes []int, conns ...*ConnectionGene) *Genome {
	g := NewGenome(key)
	for _, k := range nodes {
		g.Nodes[k] = &NodeGene{Key: k, Response: 1, Activation: "identity", Aggregation: "sum"}
	}
	for _, c := range conns {
		g.Connections[c.Key] = c
	}
	return g
}

// weightSum scores a genome by its structure only, so runs stay deterministic.
var weightSum = FitnessFunc(func(genomes []*Genome, _ *Config) error {
	for _, g := range genomes {
		total := 0.0
		for _, key := range g.sortedConnectionKeys() {
			if cg := g.Connections[key]; cg.Enabled {
				total += cg.Weight
			}
		}
		g.Fitness = math.Tanh(total)
	}
	return nil
})

func constantFitness(f float64) FitnessFunc {
	return func(genomes []*Genome, _ *Config) error {
		for _, g := range genomes {
			g.Fitness = f
		}
		return nil
	}
}

func runGenerations(t *testing.T, p *Population, eval Evaluator, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := p.RunGeneration(context.Background(), eval); err != nil {
			t.Fatalf("generation %d: %v", p.Generation, err)
		}
	}
}

// dumpPopulation renders a population in key order for equality checks.
func dumpPopulation(p *Population) string {
	var b strings.Builder
	keys := make([]int, 0, len(p.Population))
	for k := range p.Population {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(p.Population[k].String())
		b.WriteString("\n")
	}
	return b.String()
}

// recorder captures reporter events.
type recorder struct {
	BaseReporter

	started    []int
	solutions  []int
	stagnant   []int
	extinction int
	infos      []string
}

func (r *recorder) StartGeneration(generation int) { r.started = append(r.started, generation) }

func (r *recorder) FoundSolution(_ *Config, generation int, _ *Genome) {
	r.solutions = append(r.solutions, generation)
}

func (r *recorder) SpeciesStagnant(speciesID int, _ *Species) {
	r.stagnant = append(r.stagnant, speciesID)
}

func (r *recorder) CompleteExtinction() { r.extinction++ }

func (r *recorder) Info(msg string) { r.infos = append(r.infos, msg) }
