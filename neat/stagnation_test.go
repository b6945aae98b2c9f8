package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func speciesWithFitness(key, created int, fitnesses ...float64) *Species {
	s := NewSpecies(key, created)
	for i, f := range fitnesses {
		g := NewGenome(key*100 + i)
		g.Fitness = f
		s.Members[g.Key] = g
	}
	return s
}

func newStagnation(t *testing.T, maxStagnation, speciesElitism int) *Stagnation {
	t.Helper()
	cfg := DefaultConfig(2, 1)
	cfg.Stagnation.MaxStagnation = maxStagnation
	cfg.Stagnation.SpeciesElitism = speciesElitism
	s, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	return s
}

func TestStagnationBecomesStagnantAtLimit(t *testing.T) {
	stagnation := newStagnation(t, 3, 0)
	ss := NewSpeciesSet(&DefaultConfig(2, 1).SpeciesSet)
	ss.Species[1] = speciesWithFitness(1, 0, 1.0, 1.0)

	for gen := 0; gen < 3; gen++ {
		info := stagnation.Update(ss, gen)
		require.Len(t, info, 1)
		assert.False(t, info[0].IsStagnant, "generation %d", gen)
		assert.Equal(t, 0, ss.Species[1].LastImproved)
	}
	info := stagnation.Update(ss, 3)
	assert.True(t, info[0].IsStagnant)
	assert.Equal(t, []float64{1, 1, 1, 1}, ss.Species[1].FitnessHistory)
}

func TestStagnationImprovementResetsClock(t *testing.T) {
	stagnation := newStagnation(t, 2, 0)
	ss := NewSpeciesSet(&DefaultConfig(2, 1).SpeciesSet)
	sp := speciesWithFitness(1, 0, 1.0)
	ss.Species[1] = sp

	stagnation.Update(ss, 0)
	stagnation.Update(ss, 1)
	sp.Members[100].Fitness = 2.0
	info := stagnation.Update(ss, 2)

	assert.Equal(t, 2, sp.LastImproved)
	assert.False(t, info[0].IsStagnant)
	assert.InDelta(t, 2.0, sp.Fitness, 1e-12)

	// Equal fitness is not an improvement.
	stagnation.Update(ss, 3)
	assert.Equal(t, 2, sp.LastImproved)
}

func TestStagnationSpeciesElitism(t *testing.T) {
	stagnation := newStagnation(t, 1, 1)
	ss := NewSpeciesSet(&DefaultConfig(2, 1).SpeciesSet)
	ss.Species[1] = speciesWithFitness(1, 0, 1.0)
	ss.Species[2] = speciesWithFitness(2, 0, 3.0)
	ss.Species[3] = speciesWithFitness(3, 0, 2.0)

	stagnation.Update(ss, 0)
	info := stagnation.Update(ss, 5)

	require.Len(t, info, 3)
	assert.Equal(t, []int{1, 3, 2}, []int{info[0].SpeciesID, info[1].SpeciesID, info[2].SpeciesID})
	assert.True(t, info[0].IsStagnant)
	assert.True(t, info[1].IsStagnant)
	assert.False(t, info[2].IsStagnant)
	assert.Same(t, ss.Species[2], info[2].Species)
}

func TestStagnationFitnessFunction(t *testing.T) {
	cfg := DefaultConfig(2, 1)
	cfg.Stagnation.SpeciesFitnessFunc = "mean"
	stagnation, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)

	ss := NewSpeciesSet(&cfg.SpeciesSet)
	ss.Species[1] = speciesWithFitness(1, 0, 1.0, 2.0, 6.0)
	stagnation.Update(ss, 0)
	assert.InDelta(t, 3.0, ss.Species[1].Fitness, 1e-12)

	cfg.Stagnation.SpeciesFitnessFunc = "bogus"
	_, err = NewStagnation(&cfg.Stagnation)
	assert.Error(t, err)
}
