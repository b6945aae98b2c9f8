package neat

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for the NEAT algorithm.
// It is treated as read-only once a run has started.
type Config struct {
	Neat         NeatConfig         `yaml:"NEAT"`
	Genome       GenomeConfig       `yaml:"DefaultGenome"`
	Reproduction ReproductionConfig `yaml:"DefaultReproduction"`
	SpeciesSet   SpeciesSetConfig   `yaml:"DefaultSpeciesSet"`
	Stagnation   StagnationConfig   `yaml:"DefaultStagnation"`
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size" yaml:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion" yaml:"fitness_criterion"` // "max", "min" or "mean"
	FitnessThreshold     float64 `ini:"fitness_threshold" yaml:"fitness_threshold"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction" yaml:"reset_on_extinction"`
	NoFitnessTermination bool    `ini:"no_fitness_termination" yaml:"no_fitness_termination"`
	MaxGenerations       int     `ini:"max_generations" yaml:"max_generations"` // 0 means no limit
	Seed                 uint64  `ini:"seed" yaml:"seed"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs                        int     `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs" yaml:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden" yaml:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward" yaml:"feed_forward"` // If true, recurrent connections are disallowed
	CompatibilityExcessCoefficient   float64 `ini:"compatibility_excess_coefficient" yaml:"compatibility_excess_coefficient"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob" yaml:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob" yaml:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation" yaml:"single_structural_mutation"`
	StructuralMutationSurer          string  `ini:"structural_mutation_surer" yaml:"structural_mutation_surer"`
	InitialConnection                string  `ini:"initial_connection" yaml:"initial_connection"`

	BiasInitMean    float64 `ini:"bias_init_mean" yaml:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev" yaml:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type" yaml:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate" yaml:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate" yaml:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power" yaml:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value" yaml:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value" yaml:"bias_min_value"`

	ResponseInitMean    float64 `ini:"response_init_mean" yaml:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev" yaml:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type" yaml:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate" yaml:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate" yaml:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power" yaml:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value" yaml:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value" yaml:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default" yaml:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" " yaml:"activation_options"`
	ActivationMutateRate float64  `ini:"activation_mutate_rate" yaml:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default" yaml:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" " yaml:"aggregation_options"`
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate" yaml:"aggregation_mutate_rate"`

	WeightInitMean    float64 `ini:"weight_init_mean" yaml:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev" yaml:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type" yaml:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate" yaml:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate" yaml:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value" yaml:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value" yaml:"weight_min_value"`

	EnabledDefault        string  `ini:"enabled_default" yaml:"enabled_default"`
	EnabledMutateRate     float64 `ini:"enabled_mutate_rate" yaml:"enabled_mutate_rate"`
	EnabledRateToTrueAdd  float64 `ini:"enabled_rate_to_true_add" yaml:"enabled_rate_to_true_add"`
	EnabledRateToFalseAdd float64 `ini:"enabled_rate_to_false_add" yaml:"enabled_rate_to_false_add"`

	// Derived by Validate.
	InputKeys          []int   `ini:"-" yaml:"-"`
	OutputKeys         []int   `ini:"-" yaml:"-"`
	ConnectionScheme   string  `ini:"-" yaml:"-"`
	ConnectionFraction float64 `ini:"-" yaml:"-"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism" yaml:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold" yaml:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size" yaml:"min_species_size"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func" yaml:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation" yaml:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism" yaml:"species_elitism"`
}

// DefaultConfig returns the neat-python defaults for a network with the given
// number of inputs and outputs. The result is already validated.
func DefaultConfig(numInputs, numOutputs int) *Config {
	cfg := baseConfig()
	cfg.Genome.NumInputs = numInputs
	cfg.Genome.NumOutputs = numOutputs
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

func baseConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize:          150,
			FitnessCriterion: "max",
			FitnessThreshold: 3.9,
			Seed:             1,
		},
		Genome: GenomeConfig{
			FeedForward:                      true,
			CompatibilityExcessCoefficient:   math.NaN(),
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.5,
			ConnAddProb:                      0.5,
			ConnDeleteProb:                   0.5,
			NodeAddProb:                      0.2,
			NodeDeleteProb:                   0.2,
			StructuralMutationSurer:          "default",
			InitialConnection:                "full",

			BiasInitMean: 0.0, BiasInitStdev: 1.0, BiasInitType: "gaussian",
			BiasReplaceRate: 0.1, BiasMutateRate: 0.7, BiasMutatePower: 0.5,
			BiasMaxValue: 30.0, BiasMinValue: -30.0,

			ResponseInitMean: 1.0, ResponseInitStdev: 0.0, ResponseInitType: "gaussian",
			ResponseMaxValue: 30.0, ResponseMinValue: -30.0,

			ActivationDefault: "sigmoid", ActivationOptions: []string{"sigmoid"},
			AggregationDefault: "sum", AggregationOptions: []string{"sum"},

			WeightInitMean: 0.0, WeightInitStdev: 1.0, WeightInitType: "gaussian",
			WeightReplaceRate: 0.1, WeightMutateRate: 0.8, WeightMutatePower: 0.5,
			WeightMaxValue: 30.0, WeightMinValue: -30.0,

			EnabledDefault:    "true",
			EnabledMutateRate: 0.01,
		},
		Reproduction: ReproductionConfig{
			Elitism:           2,
			SurvivalThreshold: 0.2,
			MinSpeciesSize:    2,
		},
		SpeciesSet: SpeciesSetConfig{CompatibilityThreshold: 3.0},
		Stagnation: StagnationConfig{
			SpeciesFitnessFunc: "max",
			MaxStagnation:      20,
			SpeciesElitism:     2,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file, or from YAML when
// the file has a .yaml or .yml extension. Keys missing from the file keep
// their default values.
func LoadConfig(filePath string) (*Config, error) {
	var (
		config *Config
		err    error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		config, err = loadYAML(filePath)
	default:
		config, err = loadINI(filePath)
	}
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINI(filePath string) (*Config, error) {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := baseConfig()
	sections := []struct {
		name   string
		target interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if err := cfg.Section(s.name).MapTo(s.target); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	for i, opt := range config.Genome.ActivationOptions {
		config.Genome.ActivationOptions[i] = strings.TrimSpace(opt)
	}
	for i, opt := range config.Genome.AggregationOptions {
		config.Genome.AggregationOptions[i] = strings.TrimSpace(opt)
	}
	return config, nil
}

func loadYAML(filePath string) (*Config, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}
	config := baseConfig()
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	return config, nil
}

// Validate checks every setting and fills the derived fields. It is called by
// LoadConfig and DefaultConfig; callers building a Config by hand must call it
// before starting a run.
func (c *Config) Validate() error {
	if err := c.Neat.validate(); err != nil {
		return err
	}
	if err := c.Genome.validate(); err != nil {
		return err
	}
	if err := c.Reproduction.validate(); err != nil {
		return err
	}
	if c.SpeciesSet.CompatibilityThreshold <= 0 {
		return &ConfigError{"DefaultSpeciesSet", "compatibility_threshold", "must be positive"}
	}
	return c.Stagnation.validate()
}

func (n *NeatConfig) validate() error {
	if n.PopSize <= 0 {
		return &ConfigError{"NEAT", "pop_size", "must be positive"}
	}
	switch strings.ToLower(n.FitnessCriterion) {
	case "max", "min", "mean":
		n.FitnessCriterion = strings.ToLower(n.FitnessCriterion)
	default:
		if !n.NoFitnessTermination {
			return &ConfigError{"NEAT", "fitness_criterion", fmt.Sprintf("invalid value %q, must be one of max, min, mean", n.FitnessCriterion)}
		}
	}
	if n.MaxGenerations < 0 {
		return &ConfigError{"NEAT", "max_generations", "cannot be negative"}
	}
	if n.NoFitnessTermination && n.MaxGenerations == 0 {
		return &ConfigError{"NEAT", "max_generations", "required when no_fitness_termination is set"}
	}
	return nil
}

func (gc *GenomeConfig) validate() error {
	const section = "DefaultGenome"
	if gc.NumInputs <= 0 {
		return &ConfigError{section, "num_inputs", "must be positive"}
	}
	if gc.NumOutputs <= 0 {
		return &ConfigError{section, "num_outputs", "must be positive"}
	}
	if gc.NumHidden < 0 {
		return &ConfigError{section, "num_hidden", "cannot be negative"}
	}
	if math.IsNaN(gc.CompatibilityExcessCoefficient) {
		gc.CompatibilityExcessCoefficient = gc.CompatibilityDisjointCoefficient
	}
	coefficients := map[string]float64{
		"compatibility_excess_coefficient":   gc.CompatibilityExcessCoefficient,
		"compatibility_disjoint_coefficient": gc.CompatibilityDisjointCoefficient,
		"compatibility_weight_coefficient":   gc.CompatibilityWeightCoefficient,
	}
	for key, v := range coefficients {
		if v < 0 {
			return &ConfigError{section, key, "cannot be negative"}
		}
	}

	probabilities := map[string]float64{
		"conn_add_prob":             gc.ConnAddProb,
		"conn_delete_prob":          gc.ConnDeleteProb,
		"node_add_prob":             gc.NodeAddProb,
		"node_delete_prob":          gc.NodeDeleteProb,
		"bias_replace_rate":         gc.BiasReplaceRate,
		"bias_mutate_rate":          gc.BiasMutateRate,
		"response_replace_rate":     gc.ResponseReplaceRate,
		"response_mutate_rate":      gc.ResponseMutateRate,
		"weight_replace_rate":       gc.WeightReplaceRate,
		"weight_mutate_rate":        gc.WeightMutateRate,
		"activation_mutate_rate":    gc.ActivationMutateRate,
		"aggregation_mutate_rate":   gc.AggregationMutateRate,
		"enabled_mutate_rate":       gc.EnabledMutateRate,
		"enabled_rate_to_true_add":  gc.EnabledRateToTrueAdd,
		"enabled_rate_to_false_add": gc.EnabledRateToFalseAdd,
	}
	for key, p := range probabilities {
		if p < 0 || p > 1 {
			return &ConfigError{section, key, "must be between 0 and 1"}
		}
	}

	bounds := []struct {
		name     string
		min, max float64
	}{
		{"bias", gc.BiasMinValue, gc.BiasMaxValue},
		{"response", gc.ResponseMinValue, gc.ResponseMaxValue},
		{"weight", gc.WeightMinValue, gc.WeightMaxValue},
	}
	for _, b := range bounds {
		if b.max < b.min {
			return &ConfigError{section, b.name + "_max_value", b.name + "_max_value cannot be less than " + b.name + "_min_value"}
		}
	}

	for key, initType := range map[string]*string{
		"bias_init_type":     &gc.BiasInitType,
		"response_init_type": &gc.ResponseInitType,
		"weight_init_type":   &gc.WeightInitType,
	} {
		t := strings.ToLower(strings.TrimSpace(*initType))
		switch {
		case t == "":
			*initType = "gaussian"
		case strings.Contains(t, "gauss"), strings.Contains(t, "normal"), strings.Contains(t, "uniform"):
			*initType = t
		default:
			return &ConfigError{section, key, fmt.Sprintf("unknown init type %q", *initType)}
		}
	}

	if len(gc.ActivationOptions) == 0 {
		return &ConfigError{section, "activation_options", "must be specified"}
	}
	for _, name := range gc.ActivationOptions {
		if _, ok := ActivationFunctions[name]; !ok {
			return &ConfigError{section, "activation_options", fmt.Sprintf("unknown activation function %q", name)}
		}
	}
	if err := validateStringDefault(section, "activation_default", gc.ActivationDefault, ActivationFunctions); err != nil {
		return err
	}
	if len(gc.AggregationOptions) == 0 {
		return &ConfigError{section, "aggregation_options", "must be specified"}
	}
	for _, name := range gc.AggregationOptions {
		if _, ok := AggregationFunctions[name]; !ok {
			return &ConfigError{section, "aggregation_options", fmt.Sprintf("unknown aggregation function %q", name)}
		}
	}
	if err := validateStringDefault(section, "aggregation_default", gc.AggregationDefault, AggregationFunctions); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(gc.EnabledDefault)) {
	case "1", "on", "yes", "true", "0", "off", "no", "false", "random", "none":
	default:
		return &ConfigError{section, "enabled_default", fmt.Sprintf("unknown value %q", gc.EnabledDefault)}
	}

	switch strings.ToLower(strings.TrimSpace(gc.StructuralMutationSurer)) {
	case "1", "yes", "true", "on":
		gc.StructuralMutationSurer = "true"
	case "0", "no", "false", "off":
		gc.StructuralMutationSurer = "false"
	case "default", "":
		gc.StructuralMutationSurer = "default"
	default:
		return &ConfigError{section, "structural_mutation_surer", fmt.Sprintf("invalid value %q", gc.StructuralMutationSurer)}
	}

	if err := gc.parseInitialConnection(); err != nil {
		return err
	}

	gc.InputKeys = make([]int, gc.NumInputs)
	for i := range gc.InputKeys {
		gc.InputKeys[i] = -(i + 1)
	}
	gc.OutputKeys = make([]int, gc.NumOutputs)
	for i := range gc.OutputKeys {
		gc.OutputKeys[i] = i
	}
	return nil
}

func validateStringDefault[F any](section, key, value string, registry map[string]F) error {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "random" || v == "none" {
		return nil
	}
	if _, ok := registry[value]; !ok {
		return &ConfigError{section, key, fmt.Sprintf("unknown function %q", value)}
	}
	return nil
}

var connectionSchemes = map[string]bool{
	"unconnected": true, "fs_neat_nohidden": true, "fs_neat": true, "fs_neat_hidden": true,
	"full_nodirect": true, "full": true, "full_direct": true,
	"partial_nodirect": true, "partial": true, "partial_direct": true,
}

func (gc *GenomeConfig) parseInitialConnection() error {
	parts := strings.Fields(gc.InitialConnection)
	if len(parts) == 0 {
		parts = []string{"unconnected"}
	}
	scheme := parts[0]
	if !connectionSchemes[scheme] {
		return &ConfigError{"DefaultGenome", "initial_connection", fmt.Sprintf("invalid type %q", scheme)}
	}
	gc.ConnectionScheme = scheme
	gc.ConnectionFraction = 1.0
	if strings.HasPrefix(scheme, "partial") {
		if len(parts) != 2 {
			return &ConfigError{"DefaultGenome", "initial_connection", "'partial' requires a connection fraction"}
		}
		f, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || f < 0 || f > 1 {
			return &ConfigError{"DefaultGenome", "initial_connection", "'partial' connection value must be between 0.0 and 1.0, inclusive"}
		}
		gc.ConnectionFraction = f
	}
	return nil
}

func (r *ReproductionConfig) validate() error {
	if r.Elitism < 0 {
		return &ConfigError{"DefaultReproduction", "elitism", "cannot be negative"}
	}
	if r.SurvivalThreshold <= 0 || r.SurvivalThreshold > 1 {
		return &ConfigError{"DefaultReproduction", "survival_threshold", "must be in (0, 1]"}
	}
	if r.MinSpeciesSize <= 0 {
		return &ConfigError{"DefaultReproduction", "min_species_size", "must be positive"}
	}
	return nil
}

func (s *StagnationConfig) validate() error {
	if _, ok := StatFunctions[strings.ToLower(s.SpeciesFitnessFunc)]; !ok {
		return &ConfigError{"DefaultStagnation", "species_fitness_func", fmt.Sprintf("invalid value %q", s.SpeciesFitnessFunc)}
	}
	s.SpeciesFitnessFunc = strings.ToLower(s.SpeciesFitnessFunc)
	if s.MaxStagnation <= 0 {
		return &ConfigError{"DefaultStagnation", "max_stagnation", "must be positive"}
	}
	if s.SpeciesElitism < 0 {
		return &ConfigError{"DefaultStagnation", "species_elitism", "cannot be negative"}
	}
	return nil
}

// StructuralMutationSurerEnabled reports whether a structural mutation that
// cannot happen should fall back to a related one.
func (gc *GenomeConfig) StructuralMutationSurerEnabled() bool {
	switch gc.StructuralMutationSurer {
	case "true":
		return true
	case "false":
		return false
	default:
		return gc.SingleStructuralMutation
	}
}

// FirstHiddenNodeID is the smallest id available to hidden nodes.
func (gc *GenomeConfig) FirstHiddenNodeID() int {
	return gc.NumOutputs
}

func (gc *GenomeConfig) isInput(key int) bool {
	return key < 0 && key >= -gc.NumInputs
}

func (gc *GenomeConfig) isOutput(key int) bool {
	return key >= 0 && key < gc.NumOutputs
}
