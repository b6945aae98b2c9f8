package neat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
)

// Outcome is the result of one generation.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeSolved
	OutcomeMaxGenerations
	OutcomeExtinct
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSolved:
		return "solved"
	case OutcomeMaxGenerations:
		return "max_generations"
	case OutcomeExtinct:
		return "extinct"
	default:
		return "continue"
	}
}

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	Config       *Config
	Population   map[int]*Genome // Current generation of genomes (maps genome key -> genome)
	SpeciesSet   *SpeciesSet
	Reproduction Reproducer
	Stagnation   *Stagnation
	Innovations  *InnovationTracker
	RNG          *RNG
	Reporters    *ReporterSet
	Checkpointer *Checkpointer
	Generation   int     // Number of completed generations.
	BestGenome   *Genome // Best genome found so far
}

// NewPopulation creates a new Population using DefaultReproduction.
// It initializes the first generation of genomes based on the config.
func NewPopulation(config *Config) (*Population, error) {
	return NewPopulationWithReproducer(config, NewReproduction(&config.Reproduction))
}

// NewPopulationWithReproducer creates a new Population that breeds with r.
func NewPopulationWithReproducer(config *Config, r Reproducer) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}

	p := &Population{
		Config:       config,
		SpeciesSet:   NewSpeciesSet(&config.SpeciesSet),
		Reproduction: r,
		Stagnation:   stagnation,
		Innovations:  NewInnovationTracker(config.Genome.FirstHiddenNodeID() + config.Genome.NumHidden),
		RNG:          NewRNG(config.Neat.Seed),
		Reporters:    NewReporterSet(),
	}
	p.Population = r.CreateNew(p.runContext(), config.Neat.PopSize)
	return p, nil
}

// AddReporter registers a reporter for all subsequent events.
func (p *Population) AddReporter(r Reporter) {
	p.Reporters.Add(r)
}

func (p *Population) runContext() *RunContext {
	return &RunContext{
		Config:      p.Config,
		Innovations: p.Innovations,
		RNG:         p.RNG,
		Reporters:   p.Reporters,
	}
}

// Run evolves the population for at most n generations, or until the
// fitness criterion is met. max_generations, when set, also bounds the run;
// with neither limit the run only stops on a solution or an error.
// Complete extinction without reset_on_extinction ends the run with
// ErrCompleteExtinction.
func (p *Population) Run(ctx context.Context, evaluator Evaluator, n int) (*Genome, error) {
	if p.Config.Neat.NoFitnessTermination && n <= 0 && p.Config.Neat.MaxGenerations <= 0 {
		return nil, errors.New("cannot have no generational limit with no fitness termination")
	}

loop:
	for k := 0; n <= 0 || k < n; k++ {
		outcome, err := p.RunGeneration(ctx, evaluator)
		if err != nil {
			return p.BestGenome, err
		}
		switch outcome {
		case OutcomeSolved:
			return p.BestGenome, nil
		case OutcomeExtinct:
			return p.BestGenome, fmt.Errorf("generation %d: %w", p.Generation, ErrCompleteExtinction)
		case OutcomeMaxGenerations:
			break loop
		}
	}

	if p.Config.Neat.NoFitnessTermination {
		p.Reporters.FoundSolution(p.Config, p.Generation, p.BestGenome)
	}
	return p.BestGenome, nil
}

// RunGeneration executes a single generation: evaluate, speciate, update
// stagnation, reproduce. Cancellation is only observed before evaluation
// starts, so a generation is never left half done.
func (p *Population) RunGeneration(ctx context.Context, evaluator Evaluator) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeContinue, err
	}
	generation := p.Generation
	p.Reporters.StartGeneration(generation)

	// 1. Evaluate Fitness
	genomes := p.sortedGenomes()
	for _, g := range genomes {
		g.Fitness = math.NaN()
	}
	if err := evaluator.Evaluate(ctx, genomes, p.Config); err != nil {
		return OutcomeContinue, fmt.Errorf("fitness evaluation failed in generation %d: %w", generation, err)
	}
	for _, g := range genomes {
		if !g.HasFitness() {
			return OutcomeContinue, &MissingFitnessError{GenomeKey: g.Key, Generation: generation}
		}
	}

	// 2. Speciate and track the best genome.
	p.SpeciesSet.Speciate(p.Config, p.Population, generation, p.RNG, p.Reporters)

	best := RankByFitness(p.Population)[0]
	p.Reporters.PostEvaluate(p.Config, p.Population, p.SpeciesSet, best)
	if p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness {
		p.BestGenome = best.Copy()
	}

	// 3. Check the termination criterion.
	if !p.Config.Neat.NoFitnessTermination {
		if p.criterionValue() >= p.Config.Neat.FitnessThreshold {
			p.Reporters.FoundSolution(p.Config, generation, best)
			return OutcomeSolved, nil
		}
	}

	// 4. Stagnation and reproduction.
	stagnation := p.Stagnation.Update(p.SpeciesSet, generation)
	p.Innovations.ResetGeneration()
	rc := p.runContext()
	newPopulation := p.Reproduction.Reproduce(rc, p.SpeciesSet, stagnation, p.Config.Neat.PopSize, generation)
	p.Reporters.PostReproduction(p.Config, newPopulation, p.SpeciesSet)

	// 5. Handle complete extinction.
	if len(p.SpeciesSet.Species) == 0 || len(newPopulation) == 0 {
		p.Reporters.CompleteExtinction()
		if !p.Config.Neat.ResetOnExtinction {
			return OutcomeExtinct, nil
		}
		p.Reporters.Info("Resetting population after complete extinction")
		newPopulation = p.Reproduction.CreateNew(rc, p.Config.Neat.PopSize)
		indexer := p.SpeciesSet.Indexer
		p.SpeciesSet = NewSpeciesSet(&p.Config.SpeciesSet)
		p.SpeciesSet.Indexer = indexer
	}
	p.Population = newPopulation

	p.Reporters.EndGeneration(p.Config, p.Population, p.SpeciesSet)
	p.Generation++

	if p.Checkpointer != nil {
		if err := p.Checkpointer.EndGeneration(p); err != nil {
			return OutcomeContinue, err
		}
	}
	if limit := p.Config.Neat.MaxGenerations; limit > 0 && p.Generation >= limit {
		return OutcomeMaxGenerations, nil
	}
	return OutcomeContinue, nil
}

func (p *Population) criterionValue() float64 {
	fitnesses := make([]float64, 0, len(p.Population))
	for _, g := range p.sortedGenomes() {
		fitnesses = append(fitnesses, g.Fitness)
	}
	switch p.Config.Neat.FitnessCriterion {
	case "min":
		return MinFloat(fitnesses)
	case "mean":
		return Mean(fitnesses)
	default:
		return MaxFloat(fitnesses)
	}
}

func (p *Population) sortedGenomes() []*Genome {
	keys := make([]int, 0, len(p.Population))
	for k := range p.Population {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	genomes := make([]*Genome, len(keys))
	for i, k := range keys {
		genomes[i] = p.Population[k]
	}
	return genomes
}

// Snapshot captures the state needed to resume the run from the next generation.
func (p *Population) Snapshot() (*Checkpoint, error) {
	state, err := p.RNG.State()
	if err != nil {
		return nil, err
	}
	cp := &Checkpoint{
		Generation:  p.Generation,
		Config:      p.Config,
		Population:  p.Population,
		SpeciesSet:  p.SpeciesSet,
		Innovations: p.Innovations,
		RNGState:    state,
		BestGenome:  p.BestGenome,
	}
	if dr, ok := p.Reproduction.(*DefaultReproduction); ok {
		cp.Reproduction = dr
	}
	return cp, nil
}

// RestorePopulation rebuilds a population from a checkpoint. Reporters and
// the checkpointer are not part of the checkpoint and must be added again.
func RestorePopulation(cp *Checkpoint) (*Population, error) {
	if cp.Config == nil {
		return nil, errors.New("checkpoint has no config")
	}
	config := cp.Config
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to re-initialize stagnation from checkpoint config: %w", err)
	}

	population := cp.Population
	if population == nil {
		population = make(map[int]*Genome)
	}
	for _, g := range population {
		normalizeGenome(g)
	}
	if cp.BestGenome != nil {
		normalizeGenome(cp.BestGenome)
	}

	speciesSet := cp.SpeciesSet
	if speciesSet == nil {
		speciesSet = NewSpeciesSet(&config.SpeciesSet)
	}
	speciesSet.Config = &config.SpeciesSet
	if speciesSet.Species == nil {
		speciesSet.Species = make(map[int]*Species)
	}
	if speciesSet.GenomeToSpecies == nil {
		speciesSet.GenomeToSpecies = make(map[int]int)
	}
	for _, s := range speciesSet.Species {
		if s.Representative != nil {
			normalizeGenome(s.Representative)
		}
		members := make(map[int]*Genome, len(s.Members))
		for k, g := range s.Members {
			if live, ok := population[k]; ok {
				g = live
			}
			normalizeGenome(g)
			members[k] = g
		}
		s.Members = members
	}

	reproduction := cp.Reproduction
	if reproduction == nil {
		reproduction = NewReproduction(&config.Reproduction)
		for k := range population {
			reproduction.NextGenomeKey = max(reproduction.NextGenomeKey, k+1)
		}
	}
	reproduction.Config = &config.Reproduction
	if reproduction.Ancestors == nil {
		reproduction.Ancestors = make(map[int][]int)
	}

	innovations := cp.Innovations
	if innovations == nil {
		return nil, errors.New("checkpoint has no innovation tracker")
	}
	rng := NewRNG(config.Neat.Seed)
	if err := rng.SetState(cp.RNGState); err != nil {
		return nil, err
	}

	return &Population{
		Config:       config,
		Population:   population,
		SpeciesSet:   speciesSet,
		Reproduction: reproduction,
		Stagnation:   stagnation,
		Innovations:  innovations,
		RNG:          rng,
		Reporters:    NewReporterSet(),
		Generation:   cp.Generation,
		BestGenome:   cp.BestGenome,
	}, nil
}

// normalizeGenome replaces the nil maps gob produces for empty maps.
func normalizeGenome(g *Genome) {
	if g.Nodes == nil {
		g.Nodes = make(map[int]*NodeGene)
	}
	if g.Connections == nil {
		g.Connections = make(map[ConnectionKey]*ConnectionGene)
	}
}
