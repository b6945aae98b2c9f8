package nn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-engine/neat"
	"github.com/baldhumanity/neat-engine/neat/nn"
)

var (
	xorInputs  = [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	xorOutputs = []float64{0, 1, 1, 0}
)

func xorFitness(_ context.Context, g *neat.Genome, config *neat.Config) (float64, error) {
	net, err := nn.CreateFeedForwardNetwork(g, &config.Genome)
	if err != nil {
		return 0, err
	}
	fitness := 4.0
	for i, in := range xorInputs {
		out, err := net.Activate(in)
		if err != nil {
			return 0, err
		}
		d := out[0] - xorOutputs[i]
		fitness -= d * d
	}
	return fitness, nil
}

func TestEvolveXOR(t *testing.T) {
	if testing.Short() {
		t.Skip("evolution run")
	}

	solved := 0
	for _, seed := range []uint64{1, 2, 3} {
		config, err := neat.LoadConfig("../testdata/xor.ini")
		require.NoError(t, err)
		config.Neat.Seed = seed

		pop, err := neat.NewPopulation(config)
		require.NoError(t, err)
		winner, err := pop.Run(context.Background(), neat.NewParallelEvaluator(0, xorFitness), 300)
		if errors.Is(err, neat.ErrCompleteExtinction) {
			t.Logf("seed %d: %v", seed, err)
			continue
		}
		require.NoError(t, err)
		require.NotNil(t, winner)

		if winner.Fitness < config.Neat.FitnessThreshold {
			t.Logf("seed %d: best fitness %.3f after %d generations", seed, winner.Fitness, pop.Generation)
			continue
		}
		solved++

		fitness, err := xorFitness(context.Background(), winner, config)
		require.NoError(t, err)
		assert.InDelta(t, winner.Fitness, fitness, 1e-9)
		t.Logf("seed %d: solved in generation %d with %v nodes", seed, pop.Generation, len(winner.Nodes))
	}
	assert.Positive(t, solved)
}
