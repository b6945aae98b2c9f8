package neat

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeGenomes(n int) []*Genome {
	genomes := make([]*Genome, n)
	for i := range genomes {
		genomes[i] = NewGenome(i + 1)
	}
	return genomes
}

func TestParallelEvaluator(t *testing.T) {
	var calls atomic.Int32
	pe := NewParallelEvaluator(4, func(_ context.Context, g *Genome, _ *Config) (float64, error) {
		calls.Add(1)
		return float64(g.Key) * 2, nil
	})

	genomes := makeGenomes(50)
	require.NoError(t, pe.Evaluate(context.Background(), genomes, DefaultConfig(2, 1)))

	assert.EqualValues(t, 50, calls.Load())
	for _, g := range genomes {
		assert.Equal(t, float64(g.Key)*2, g.Fitness)
	}
}

func TestParallelEvaluatorError(t *testing.T) {
	errBadGenome := errors.New("bad genome")
	pe := NewParallelEvaluator(2, func(_ context.Context, g *Genome, _ *Config) (float64, error) {
		if g.Key == 7 {
			return 0, errBadGenome
		}
		return 1, nil
	})

	err := pe.Evaluate(context.Background(), makeGenomes(10), DefaultConfig(2, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadGenome)
	assert.Contains(t, err.Error(), "genome 7")
}

func TestParallelEvaluatorWorkers(t *testing.T) {
	assert.Equal(t, runtime.GOMAXPROCS(0), NewParallelEvaluator(0, nil).Workers)
	assert.Equal(t, runtime.GOMAXPROCS(0), NewParallelEvaluator(-3, nil).Workers)
	assert.Equal(t, 3, NewParallelEvaluator(3, nil).Workers)
}

func TestParallelEvaluatorDrivesPopulation(t *testing.T) {
	cfg := testConfig(t, 20)
	cfg.Neat.NoFitnessTermination = true
	cfg.Neat.MaxGenerations = 2
	p, err := NewPopulation(cfg)
	require.NoError(t, err)

	pe := NewParallelEvaluator(4, func(_ context.Context, g *Genome, _ *Config) (float64, error) {
		_, conns := g.Size()
		return float64(conns), nil
	})
	_, err = p.Run(context.Background(), pe, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Generation)
	for _, sp := range p.SpeciesSet.Species {
		for _, m := range sp.Members {
			_, conns := m.Size()
			assert.Equal(t, float64(conns), m.Fitness)
		}
	}
}

func TestFitnessFuncAdapter(t *testing.T) {
	var seen int
	var eval Evaluator = FitnessFunc(func(genomes []*Genome, _ *Config) error {
		seen = len(genomes)
		return nil
	})
	require.NoError(t, eval.Evaluate(context.Background(), makeGenomes(3), nil))
	assert.Equal(t, 3, seen)
}
