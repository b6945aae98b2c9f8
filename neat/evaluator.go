package neat

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Evaluator assigns a fitness to every genome it is given. It returns only
// once all genomes are done; the engine treats the call as a barrier.
type Evaluator interface {
	Evaluate(ctx context.Context, genomes []*Genome, config *Config) error
}

// FitnessFunc is the type for the function provided by the user to evaluate genome fitness.
// It should set the Fitness field of every genome it is given.
type FitnessFunc func(genomes []*Genome, config *Config) error

// Evaluate implements Evaluator.
func (f FitnessFunc) Evaluate(_ context.Context, genomes []*Genome, config *Config) error {
	return f(genomes, config)
}

// GenomeFitnessFunc computes the fitness of a single genome.
type GenomeFitnessFunc func(ctx context.Context, genome *Genome, config *Config) (float64, error)

// ParallelEvaluator evaluates genomes concurrently on a bounded set of
// goroutines. The first error cancels the remaining work and is returned.
type ParallelEvaluator struct {
	Workers int
	Eval    GenomeFitnessFunc
}

// NewParallelEvaluator creates an evaluator using the given number of workers.
// A non-positive count uses one worker per CPU.
func NewParallelEvaluator(workers int, eval GenomeFitnessFunc) *ParallelEvaluator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParallelEvaluator{Workers: workers, Eval: eval}
}

// Evaluate implements Evaluator. Each genome is written by exactly one worker.
func (pe *ParallelEvaluator) Evaluate(ctx context.Context, genomes []*Genome, config *Config) error {
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(max(pe.Workers, 1)).
		WithCancelOnError().
		WithFirstError()
	for _, g := range genomes {
		p.Go(func(ctx context.Context) error {
			fitness, err := pe.Eval(ctx, g, config)
			if err != nil {
				return fmt.Errorf("genome %d: %w", g.Key, err)
			}
			g.Fitness = fitness
			return nil
		})
	}
	return p.Wait()
}
