package neat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(3, 2)

	assert.Equal(t, []int{-1, -2, -3}, cfg.Genome.InputKeys)
	assert.Equal(t, []int{0, 1}, cfg.Genome.OutputKeys)
	assert.Equal(t, "full", cfg.Genome.ConnectionScheme)
	assert.Equal(t, cfg.Genome.CompatibilityDisjointCoefficient, cfg.Genome.CompatibilityExcessCoefficient)
	assert.Equal(t, 2, cfg.Genome.FirstHiddenNodeID())
	assert.False(t, cfg.Genome.StructuralMutationSurerEnabled())
}

func TestLoadConfigINI(t *testing.T) {
	cfg, err := LoadConfig("testdata/xor.ini")
	require.NoError(t, err)

	assert.Equal(t, 150, cfg.Neat.PopSize)
	assert.Equal(t, "max", cfg.Neat.FitnessCriterion)
	assert.InDelta(t, 3.9, cfg.Neat.FitnessThreshold, 1e-12)
	assert.Equal(t, 300, cfg.Neat.MaxGenerations)
	assert.Equal(t, uint64(42), cfg.Neat.Seed)
	assert.False(t, cfg.Neat.ResetOnExtinction)

	assert.Equal(t, 2, cfg.Genome.NumInputs)
	assert.Equal(t, 1, cfg.Genome.NumOutputs)
	assert.True(t, cfg.Genome.FeedForward)
	assert.Equal(t, []string{"sigmoid"}, cfg.Genome.ActivationOptions)
	assert.Equal(t, "full", cfg.Genome.ConnectionScheme)
	assert.InDelta(t, 1.0, cfg.Genome.CompatibilityExcessCoefficient, 1e-12)
	assert.InDelta(t, 3.0, cfg.SpeciesSet.CompatibilityThreshold, 1e-12)
	assert.Equal(t, 20, cfg.Stagnation.MaxStagnation)
	assert.Equal(t, 2, cfg.Reproduction.Elitism)
}

func TestLoadConfigYAML(t *testing.T) {
	cfg, err := LoadConfig("testdata/xor.yaml")
	require.NoError(t, err)

	assert.Equal(t, "partial_direct", cfg.Genome.ConnectionScheme)
	assert.InDelta(t, 0.5, cfg.Genome.ConnectionFraction, 1e-12)
	assert.Equal(t, []string{"sigmoid", "tanh"}, cfg.Genome.ActivationOptions)
	assert.InDelta(t, 2.0, cfg.Genome.CompatibilityExcessCoefficient, 1e-12)
	assert.True(t, cfg.Genome.SingleStructuralMutation)
	assert.True(t, cfg.Genome.StructuralMutationSurerEnabled())
	assert.Equal(t, "mean", cfg.Stagnation.SpeciesFitnessFunc)
	assert.InDelta(t, 0.3, cfg.Reproduction.SurvivalThreshold, 1e-12)

	// Keys absent from the file keep their defaults.
	assert.InDelta(t, 0.8, cfg.Genome.WeightMutateRate, 1e-12)
	assert.Equal(t, 0, cfg.Neat.MaxGenerations)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("testdata/does-not-exist.ini")
	require.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		key    string
	}{
		{"pop size", func(c *Config) { c.Neat.PopSize = 0 }, "pop_size"},
		{"fitness criterion", func(c *Config) { c.Neat.FitnessCriterion = "best" }, "fitness_criterion"},
		{"no termination without limit", func(c *Config) { c.Neat.NoFitnessTermination = true }, "max_generations"},
		{"probability", func(c *Config) { c.Genome.ConnAddProb = 1.5 }, "conn_add_prob"},
		{"bounds", func(c *Config) { c.Genome.WeightMinValue = 40 }, "weight_max_value"},
		{"activation", func(c *Config) { c.Genome.ActivationOptions = []string{"nope"} }, "activation_options"},
		{"aggregation default", func(c *Config) { c.Genome.AggregationDefault = "nope" }, "aggregation_default"},
		{"init type", func(c *Config) { c.Genome.BiasInitType = "poisson" }, "bias_init_type"},
		{"initial connection", func(c *Config) { c.Genome.InitialConnection = "bogus" }, "initial_connection"},
		{"partial fraction", func(c *Config) { c.Genome.InitialConnection = "partial 1.5" }, "initial_connection"},
		{"partial without fraction", func(c *Config) { c.Genome.InitialConnection = "partial" }, "initial_connection"},
		{"surer", func(c *Config) { c.Genome.StructuralMutationSurer = "maybe" }, "structural_mutation_surer"},
		{"survival threshold", func(c *Config) { c.Reproduction.SurvivalThreshold = 0 }, "survival_threshold"},
		{"min species size", func(c *Config) { c.Reproduction.MinSpeciesSize = 0 }, "min_species_size"},
		{"threshold", func(c *Config) { c.SpeciesSet.CompatibilityThreshold = 0 }, "compatibility_threshold"},
		{"species fitness func", func(c *Config) { c.Stagnation.SpeciesFitnessFunc = "mode" }, "species_fitness_func"},
		{"max stagnation", func(c *Config) { c.Stagnation.MaxStagnation = 0 }, "max_stagnation"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig(2, 1)
			tc.modify(cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected a ConfigError, got %v", err)
			assert.Equal(t, tc.key, cfgErr.Key)
		})
	}
}

func TestValidatePartialConnection(t *testing.T) {
	cfg := DefaultConfig(2, 1)
	cfg.Genome.InitialConnection = "partial_nodirect 0.25"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "partial_nodirect", cfg.Genome.ConnectionScheme)
	assert.InDelta(t, 0.25, cfg.Genome.ConnectionFraction, 1e-12)
}

func TestRoleOf(t *testing.T) {
	gc := &DefaultConfig(2, 2).Genome
	assert.Equal(t, RoleInput, gc.RoleOf(-1))
	assert.Equal(t, RoleInput, gc.RoleOf(-2))
	assert.Equal(t, RoleOutput, gc.RoleOf(0))
	assert.Equal(t, RoleOutput, gc.RoleOf(1))
	assert.Equal(t, RoleHidden, gc.RoleOf(2))
	assert.Equal(t, "hidden", gc.RoleOf(7).String())
}
