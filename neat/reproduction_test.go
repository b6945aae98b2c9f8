package neat

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSpawn(t *testing.T) {
	tests := []struct {
		name     string
		adjusted []float64
		previous []int
		want     []int
	}{
		{"moves towards the fitter species", []float64{1.0, 0.0}, []int{20, 20}, []int{27, 13}},
		{"keeps converging", []float64{1.0, 0.0}, []int{27, 13}, []int{30, 10}},
		{"fixed point with minimum", []float64{1.0, 0.0}, []int{30, 10}, []int{31, 10}},
		{"stays at fixed point", []float64{1.0, 0.0}, []int{31, 10}, []int{31, 10}},
		{"equal fitness fixed point", []float64{0.5, 0.5}, []int{20, 20}, []int{20, 20}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeSpawn(tc.adjusted, tc.previous, 40, 10))
		})
	}
}

func TestComputeSpawnConvergence(t *testing.T) {
	sizes := []int{30, 10}
	var sequence [][]int
	for i := 0; i < 5; i++ {
		sizes = ComputeSpawn([]float64{0.5, 0.5}, sizes, 40, 10)
		sequence = append(sequence, sizes)
	}
	assert.Equal(t, [][]int{{25, 15}, {23, 17}, {21, 19}, {20, 20}, {20, 20}}, sequence)
}

func TestComputeSpawnZeroFitness(t *testing.T) {
	assert.Equal(t, []int{20, 20}, ComputeSpawn([]float64{0, 0}, []int{20, 20}, 40, 2))
	assert.Equal(t, []int{5, 5}, ComputeSpawn([]float64{0, 0}, []int{0, 0}, 10, 2))
}

func TestBalanceSpawn(t *testing.T) {
	t.Run("trims the largest species", func(t *testing.T) {
		assert.Equal(t, []int{30, 10}, balanceSpawn([]int{31, 10}, []float64{1, 0}, 40, 10, 2, nil))
		assert.Equal(t, []int{13, 11, 10}, balanceSpawn([]int{14, 12, 10}, []float64{1, 0.5, 0}, 34, 10, 2, nil))
	})
	t.Run("pads the smallest species", func(t *testing.T) {
		assert.Equal(t, []int{12, 11}, balanceSpawn([]int{10, 10}, []float64{0.5, 0.5}, 23, 2, 2, nil))
		assert.Equal(t, []int{21, 4}, balanceSpawn([]int{20, 3}, []float64{1, 0}, 25, 2, 2, nil))
	})
	t.Run("cuts the weakest species to its elites", func(t *testing.T) {
		rec := &recorder{}
		got := balanceSpawn([]int{12, 10}, []float64{0.2, 0.8}, 15, 10, 2, NewReporterSet(rec))
		assert.Equal(t, []int{5, 10}, got)
		require.Len(t, rec.infos, 1)
		assert.Contains(t, rec.infos[0], "exceeding pop_size 15")
	})
	t.Run("drops the weakest species", func(t *testing.T) {
		got := balanceSpawn([]int{2, 2, 2, 2}, []float64{0.4, 0.1, 0.3, 0.2}, 5, 2, 2, nil)
		assert.Equal(t, []int{2, 0, 2, 1}, got)
	})
	t.Run("drops below the elites when elitism is off", func(t *testing.T) {
		assert.Equal(t, []int{2, 0}, balanceSpawn([]int{3, 3}, []float64{1, 0}, 2, 3, 0, nil))
	})
	t.Run("exact sum is untouched", func(t *testing.T) {
		assert.Equal(t, []int{25, 15}, balanceSpawn([]int{25, 15}, []float64{1, 0}, 40, 2, 2, nil))
	})
}

func TestRankByFitness(t *testing.T) {
	genomes := map[int]*Genome{}
	for k, f := range map[int]float64{1: 0.5, 2: 2.0, 3: 0.5, 4: -1} {
		g := NewGenome(k)
		g.Fitness = f
		genomes[k] = g
	}
	ranked := RankByFitness(genomes)
	keys := make([]int, len(ranked))
	for i, g := range ranked {
		keys[i] = g.Key
	}
	assert.Equal(t, []int{2, 1, 3, 4}, keys)
}

// preparedPopulation evaluates and speciates one generation without reproducing.
func preparedPopulation(t *testing.T, cfg *Config) (*Population, []StagnationInfo) {
	t.Helper()
	p, err := NewPopulation(cfg)
	require.NoError(t, err)
	for k, g := range p.Population {
		g.Fitness = float64(k % 17)
	}
	p.SpeciesSet.Speciate(cfg, p.Population, 0, p.RNG, p.Reporters)
	return p, p.Stagnation.Update(p.SpeciesSet, 0)
}

func TestReproduce(t *testing.T) {
	cfg := testConfig(t, 60)
	cfg.SpeciesSet.CompatibilityThreshold = 1.0
	p, stagnation := preparedPopulation(t, cfg)

	old := make(map[int]*Genome, len(p.Population))
	for k, g := range p.Population {
		old[k] = g
	}
	oldSpecies := make(map[int]int, len(p.SpeciesSet.GenomeToSpecies))
	for k, v := range p.SpeciesSet.GenomeToSpecies {
		oldSpecies[k] = v
	}
	pools := map[int]map[int]bool{}
	elites := map[int][]*Genome{}
	for sid, s := range p.SpeciesSet.Species {
		ranked := RankByFitness(s.Members)
		cutoff := min(max(int(math.Ceil(cfg.Reproduction.SurvivalThreshold*float64(len(ranked)))), 2), len(ranked))
		pools[sid] = map[int]bool{}
		for _, g := range ranked[:cutoff] {
			pools[sid][g.Key] = true
		}
		elites[sid] = ranked[:min(cfg.Reproduction.Elitism, len(ranked))]
	}
	maxOldKey := 0
	for k := range old {
		maxOldKey = max(maxOldKey, k)
	}

	next := p.Reproduction.Reproduce(p.runContext(), p.SpeciesSet, stagnation, cfg.Neat.PopSize, 0)

	assert.Len(t, next, cfg.Neat.PopSize)
	for sid := range p.SpeciesSet.Species {
		for _, elite := range elites[sid] {
			assert.Same(t, elite, next[elite.Key], "elite %d of species %d", elite.Key, sid)
		}
	}
	for k, g := range next {
		if _, survived := old[k]; survived {
			continue
		}
		assert.Greater(t, k, maxOldKey)
		sid := oldSpecies[g.Parent1ID]
		assert.Equal(t, sid, oldSpecies[g.Parent2ID], "parents of %d come from one species", k)
		assert.True(t, pools[sid][g.Parent1ID], "parent %d is in the breeding pool", g.Parent1ID)
		assert.True(t, pools[sid][g.Parent2ID], "parent %d is in the breeding pool", g.Parent2ID)
		assert.Equal(t, []int{g.Parent1ID, g.Parent2ID}, p.Reproduction.(*DefaultReproduction).Ancestors[k])
		assert.False(t, g.HasFitness())
	}
}

func TestReproduceKeepsPopSizeWithManySpecies(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.SpeciesSet.CompatibilityThreshold = 1e-9
	cfg.Stagnation.SpeciesElitism = 100
	p, err := NewPopulation(cfg)
	require.NoError(t, err)
	rec := &recorder{}
	p.AddReporter(rec)

	for i := 0; i < 4; i++ {
		runGenerations(t, p, weightSum, 1)
		assert.Len(t, p.Population, cfg.Neat.PopSize, "generation %d", p.Generation)
		assert.LessOrEqual(t, len(p.SpeciesSet.Species), cfg.Neat.PopSize)
		for _, sp := range p.SpeciesSet.Species {
			assert.NotEmpty(t, sp.Members)
		}
	}
	dropped := slices.ContainsFunc(rec.infos, func(msg string) bool {
		return strings.Contains(msg, "dropping the weakest species")
	})
	assert.True(t, dropped)
}

func TestReproduceRemovesStagnantSpecies(t *testing.T) {
	cfg := testConfig(t, 20)
	p, stagnation := preparedPopulation(t, cfg)
	rec := &recorder{}
	p.AddReporter(rec)
	for i := range stagnation {
		stagnation[i].IsStagnant = true
	}

	next := p.Reproduction.Reproduce(p.runContext(), p.SpeciesSet, stagnation, cfg.Neat.PopSize, 0)

	assert.Empty(t, next)
	assert.Empty(t, p.SpeciesSet.Species)
	assert.Len(t, rec.stagnant, len(stagnation))
}

func TestReproduceSetsAdjustedFitness(t *testing.T) {
	cfg := testConfig(t, 20)
	cfg.SpeciesSet.CompatibilityThreshold = 100
	p, stagnation := preparedPopulation(t, cfg)
	require.Len(t, stagnation, 1)
	sp := stagnation[0].Species
	fitnesses := sp.GetFitnesses()

	p.Reproduction.Reproduce(p.runContext(), p.SpeciesSet, stagnation, cfg.Neat.PopSize, 0)

	want := (Mean(fitnesses) - MinFloat(fitnesses)) / math.Max(1, MaxFloat(fitnesses)-MinFloat(fitnesses))
	assert.InDelta(t, want, sp.AdjustedFitness, 1e-12)
}

func TestCreateNewAssignsIncreasingKeys(t *testing.T) {
	cfg := testConfig(t, 5)
	r := NewReproduction(&cfg.Reproduction)
	rc := &RunContext{Config: cfg, Innovations: NewInnovationTracker(cfg.Genome.FirstHiddenNodeID()), RNG: NewRNG(1)}

	first := r.CreateNew(rc, 5)
	second := r.CreateNew(rc, 3)

	assert.Len(t, first, 5)
	assert.Len(t, second, 3)
	for k := 1; k <= 5; k++ {
		assert.Contains(t, first, k)
	}
	for k := 6; k <= 8; k++ {
		assert.Contains(t, second, k)
		assert.Empty(t, r.Ancestors[k])
	}
	assert.Equal(t, 9, r.NextGenomeKey)
}
