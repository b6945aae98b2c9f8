// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, attempting to find
// a balance between the fitness of evolved solutions and their diversity.
//
// This implementation is based on the original paper by Kenneth O. Stanley and Risto Miikkulainen
// and the neat-python implementation (https://github.com/CodeReclaimers/neat-python).
//
// The engine is single-threaded. Every random decision is drawn from the
// population's RNG, so a run is reproducible from its seed. Fitness
// evaluation is the only step handed to caller code, through an Evaluator;
// ParallelEvaluator spreads it over a worker pool.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//	pop.AddReporter(neat.NewStdOutReporter(true))
//
//	eval := neat.FitnessFunc(func(genomes []*neat.Genome, config *neat.Config) error {
//		for _, g := range genomes {
//			g.Fitness = score(g)
//		}
//		return nil
//	})
//	winner, err := pop.Run(context.Background(), eval, 100)
//	if err != nil {
//		log.Fatalf("Error running evolution: %v", err)
//	}
//
// Checkpoints are taken between generations by a Checkpointer and restored
// with RestorePopulation; the store subpackage keeps them in SQLite.
package neat
