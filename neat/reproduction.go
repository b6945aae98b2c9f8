package neat

import (
	"cmp"
	"math"
	"slices"
)

// RunContext carries the run-wide collaborators every generation step needs.
type RunContext struct {
	Config      *Config
	Innovations *InnovationTracker
	RNG         *RNG
	Reporters   *ReporterSet
}

// Reproducer creates genomes, either from scratch or as the offspring of the
// current species. Implementations can replace DefaultReproduction wholesale.
type Reproducer interface {
	CreateNew(rc *RunContext, numGenomes int) map[int]*Genome
	Reproduce(rc *RunContext, speciesSet *SpeciesSet, stagnation []StagnationInfo, popSize, generation int) map[int]*Genome
}

// DefaultReproduction allocates offspring to species in proportion to their
// adjusted fitness and breeds them by crossover and mutation.
type DefaultReproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int           // State for the next genome key
	Ancestors     map[int][]int // Map genome key -> parent keys (for tracking lineage)
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *DefaultReproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig) *DefaultReproduction {
	return &DefaultReproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
	}
}

// CreateNew creates numGenomes freshly configured genomes.
func (r *DefaultReproduction) CreateNew(rc *RunContext, numGenomes int) map[int]*Genome {
	if r.Ancestors == nil {
		r.Ancestors = make(map[int][]int)
	}
	newGenomes := make(map[int]*Genome, numGenomes)
	for i := 0; i < numGenomes; i++ {
		key := r.getNextKey()
		g := NewGenome(key)
		g.ConfigureNew(&rc.Config.Genome, rc.Innovations, rc.RNG)
		newGenomes[key] = g
		r.Ancestors[key] = []int{}
	}
	return newGenomes
}

// Reproduce creates the next generation from the non-stagnant species.
// Species that are stagnant are reported and removed from the species set.
// An empty result with an empty species set means complete extinction.
func (r *DefaultReproduction) Reproduce(rc *RunContext, speciesSet *SpeciesSet, stagnation []StagnationInfo, popSize, generation int) map[int]*Genome {
	var allFitnesses []float64
	var remaining []*Species
	for _, info := range stagnation {
		if info.IsStagnant {
			rc.Reporters.SpeciesStagnant(info.SpeciesID, info.Species)
			continue
		}
		allFitnesses = append(allFitnesses, info.Species.GetFitnesses()...)
		remaining = append(remaining, info.Species)
	}
	if len(remaining) == 0 {
		speciesSet.Species = make(map[int]*Species)
		return make(map[int]*Genome)
	}

	// Adjusted fitness is the species' mean member fitness, normalized to the
	// spread of all member fitnesses.
	minFitness := MinFloat(allFitnesses)
	maxFitness := MaxFloat(allFitnesses)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)
	adjusted := make([]float64, len(remaining))
	previousSizes := make([]int, len(remaining))
	for i, sp := range remaining {
		sp.AdjustedFitness = (Mean(sp.GetFitnesses()) - minFitness) / fitnessRange
		adjusted[i] = sp.AdjustedFitness
		previousSizes[i] = len(sp.Members)
	}
	rc.Reporters.Infof("Average adjusted fitness: %.3f", Mean(adjusted))

	minSpeciesSize := max(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawnAmounts := ComputeSpawn(adjusted, previousSizes, popSize, minSpeciesSize)
	spawnAmounts = balanceSpawn(spawnAmounts, adjusted, popSize, minSpeciesSize, r.Config.Elitism, rc.Reporters)

	if r.Ancestors == nil {
		r.Ancestors = make(map[int][]int)
	}
	newPopulation := make(map[int]*Genome, popSize)
	retained := make(map[int]*Species, len(remaining))
	for i, sp := range remaining {
		spawn := spawnAmounts[i]
		if spawn <= 0 {
			continue
		}
		retained[sp.Key] = sp

		oldMembers := RankByFitness(sp.Members)

		// Elites move on unchanged.
		for j := 0; j < r.Config.Elitism && j < len(oldMembers) && spawn > 0; j++ {
			elite := oldMembers[j]
			newPopulation[elite.Key] = elite
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		cutoff = min(max(cutoff, 2), len(oldMembers))
		parents := oldMembers[:cutoff]

		for ; spawn > 0; spawn-- {
			parent1 := parents[rc.RNG.IntN(len(parents))]
			parent2 := parents[rc.RNG.IntN(len(parents))]

			childKey := r.getNextKey()
			child := NewGenome(childKey)
			child.ConfigureCrossover(parent1, parent2, rc.RNG)
			child.Mutate(&rc.Config.Genome, rc.Innovations, rc.RNG)
			child.Parent1ID, child.Parent2ID = parent1.Key, parent2.Key

			newPopulation[childKey] = child
			r.Ancestors[childKey] = []int{parent1.Key, parent2.Key}
		}
	}
	speciesSet.Species = retained
	return newPopulation
}

// RankByFitness returns the genomes ordered from most to least fit. Ties are
// broken by genome key so the order is reproducible.
func RankByFitness(genomes map[int]*Genome) []*Genome {
	ranked := make([]*Genome, 0, len(genomes))
	for _, g := range genomes {
		ranked = append(ranked, g)
	}
	slices.SortFunc(ranked, func(a, b *Genome) int {
		if c := cmp.Compare(b.Fitness, a.Fitness); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return ranked
}

// ComputeSpawn returns how many offspring each species should get. Each
// species moves halfway from its previous size towards its fitness-proportional
// share, by at least one member, and the result is scaled back to popSize.
// Rounding and the minimum size mean the total can miss popSize slightly.
func ComputeSpawn(adjustedFitness []float64, previousSizes []int, popSize, minSpeciesSize int) []int {
	afSum := 0.0
	for _, af := range adjustedFitness {
		afSum += af
	}

	spawnAmounts := make([]int, len(adjustedFitness))
	total := 0
	for i, af := range adjustedFitness {
		target := float64(minSpeciesSize)
		if afSum > 0 {
			target = math.Max(target, af/afSum*float64(popSize))
		}

		ps := previousSizes[i]
		d := (target - float64(ps)) * 0.5
		c := int(math.RoundToEven(d))
		spawn := ps
		switch {
		case c != 0:
			spawn += c
		case d > 0:
			spawn++
		case d < 0:
			spawn--
		}
		spawnAmounts[i] = spawn
		total += spawn
	}

	if total <= 0 {
		for i := range spawnAmounts {
			spawnAmounts[i] = minSpeciesSize
		}
		return spawnAmounts
	}

	norm := float64(popSize) / float64(total)
	for i, spawn := range spawnAmounts {
		spawnAmounts[i] = max(minSpeciesSize, int(math.RoundToEven(float64(spawn)*norm)))
	}
	return spawnAmounts
}

// balanceSpawn pads or trims spawn amounts so they sum to popSize. Members are
// added to the smallest species first and removed from the largest first,
// down to minSpeciesSize. If the minimums alone exceed popSize, the species
// with the lowest adjusted fitness are cut to their elites and then dropped.
func balanceSpawn(spawnAmounts []int, adjustedFitness []float64, popSize, minSpeciesSize, elitism int, reporters *ReporterSet) []int {
	total := 0
	for _, s := range spawnAmounts {
		total += s
	}
	diff := popSize - total
	if diff == 0 || len(spawnAmounts) == 0 {
		return spawnAmounts
	}

	order := make([]int, len(spawnAmounts))
	for i := range order {
		order[i] = i
	}
	if diff > 0 {
		slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(spawnAmounts[a], spawnAmounts[b]) })
		for i := 0; diff > 0; i++ {
			spawnAmounts[order[i%len(order)]]++
			diff--
		}
		return spawnAmounts
	}

	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(spawnAmounts[b], spawnAmounts[a]) })
	for diff < 0 {
		removed := false
		for _, idx := range order {
			if diff == 0 {
				break
			}
			if spawnAmounts[idx] > minSpeciesSize {
				spawnAmounts[idx]--
				diff++
				removed = true
			}
		}
		if !removed {
			break
		}
	}
	if diff == 0 {
		return spawnAmounts
	}

	reporters.Infof("Species minimums need %d members, exceeding pop_size %d: dropping the weakest species", popSize-diff, popSize)
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(adjustedFitness[a], adjustedFitness[b]) })
	for _, floor := range []int{elitism, 0} {
		for _, idx := range order {
			if diff == 0 {
				return spawnAmounts
			}
			if cut := min(spawnAmounts[idx]-floor, -diff); cut > 0 {
				spawnAmounts[idx] -= cut
				diff += cut
			}
		}
	}
	return spawnAmounts
}
