package neat

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[config.SpeciesFitnessFunc]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}

	return &Stagnation{
		Config:             config,
		SpeciesFitnessFunc: fn,
	}, nil
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update records this generation's fitness for every species and flags the
// stagnant ones. A species improves only when its fitness beats every earlier
// entry in its history. The SpeciesElitism fittest species are never flagged.
// Results are ordered from least to most fit; removing stagnant species is
// left to the caller.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	ranked := make([]*Species, 0, len(speciesSet.Species))
	for _, sp := range speciesSet.Species {
		previousMax := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			previousMax = MaxFloat(sp.FitnessHistory)
		}

		sp.Fitness = s.SpeciesFitnessFunc(sp.GetFitnesses())
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > previousMax {
			sp.LastImproved = generation
		}
		ranked = append(ranked, sp)
	}

	// Fittest first; ties go to the older species.
	slices.SortFunc(ranked, func(a, b *Species) int {
		if c := cmp.Compare(b.Fitness, a.Fitness); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	result := make([]StagnationInfo, len(ranked))
	for i, sp := range ranked {
		stagnant := i >= s.Config.SpeciesElitism && generation-sp.LastImproved >= s.Config.MaxStagnation
		result[len(ranked)-1-i] = StagnationInfo{
			SpeciesID:  sp.Key,
			Species:    sp,
			IsStagnant: stagnant,
		}
	}
	return result
}
