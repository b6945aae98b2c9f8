package neat

import (
	"fmt"
	"math"
	"strings"
)

// NodeRole says how a node id relates to the network's external pins.
type NodeRole int

const (
	RoleInput NodeRole = iota
	RoleHidden
	RoleOutput
)

func (r NodeRole) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	default:
		return "hidden"
	}
}

// RoleOf classifies a node id. By convention inputs are -1..-NumInputs and
// outputs are 0..NumOutputs-1; every other id is hidden.
func (gc *GenomeConfig) RoleOf(key int) NodeRole {
	switch {
	case gc.isInput(key):
		return RoleInput
	case gc.isOutput(key):
		return RoleOutput
	default:
		return RoleHidden
	}
}

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the neural network genome.
// Input pins have no node gene.
type NodeGene struct {
	Key         int
	Bias        float64
	Response    float64
	Activation  string
	Aggregation string
}

// NewNodeGene creates a new NodeGene with attributes initialized according to the config.
func NewNodeGene(key int, config *GenomeConfig, rng *RNG) *NodeGene {
	ng := &NodeGene{Key: key}
	ng.Bias = initFloatAttribute(rng, config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue)
	ng.Response = initFloatAttribute(rng, config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue)
	ng.Activation = initStringAttribute(rng, config.ActivationDefault, config.ActivationOptions)
	ng.Aggregation = initStringAttribute(rng, config.AggregationDefault, config.AggregationOptions)
	return ng
}

func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(Key: %d, Bias: %.3f, Response: %.3f, Activation: %s, Aggregation: %s)",
		ng.Key, ng.Bias, ng.Response, ng.Activation, ng.Aggregation)
}

// Copy creates a deep copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// Mutate adjusts the attributes of the NodeGene. Each attribute has its own
// independent trial.
func (ng *NodeGene) Mutate(config *GenomeConfig, rng *RNG) {
	ng.Bias = mutateFloatAttribute(rng, ng.Bias, config.BiasMutateRate, config.BiasReplaceRate, config.BiasMutatePower, config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue)
	ng.Response = mutateFloatAttribute(rng, ng.Response, config.ResponseMutateRate, config.ResponseReplaceRate, config.ResponseMutatePower, config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue)
	ng.Activation = mutateStringAttribute(rng, ng.Activation, config.ActivationMutateRate, config.ActivationOptions)
	ng.Aggregation = mutateStringAttribute(rng, ng.Aggregation, config.AggregationMutateRate, config.AggregationOptions)
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionKey uniquely identifies a connection gene within a genome.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

func (k ConnectionKey) String() string {
	return fmt.Sprintf("%d->%d", k.InNodeID, k.OutNodeID)
}

// ConnectionGene represents a connection between two nodes in the genome.
// Node ids are references into the owning genome's node map.
type ConnectionGene struct {
	Key        ConnectionKey
	Weight     float64
	Enabled    bool
	Innovation int
}

// NewConnectionGene creates a new ConnectionGene with attributes initialized according to the config.
func NewConnectionGene(key ConnectionKey, innovation int, config *GenomeConfig, rng *RNG) *ConnectionGene {
	return &ConnectionGene{
		Key:        key,
		Weight:     initFloatAttribute(rng, config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue),
		Enabled:    initBoolAttribute(rng, config.EnabledDefault),
		Innovation: innovation,
	}
}

func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Key: %s, Weight: %.3f, Enabled: %t, Innovation: %d)",
		cg.Key, cg.Weight, cg.Enabled, cg.Innovation)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// Mutate adjusts the weight and enabled flag.
func (cg *ConnectionGene) Mutate(config *GenomeConfig, rng *RNG) {
	cg.Weight = mutateFloatAttribute(rng, cg.Weight, config.WeightMutateRate, config.WeightReplaceRate, config.WeightMutatePower, config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue)
	cg.Enabled = mutateBoolAttribute(rng, cg.Enabled, config.EnabledMutateRate, config.EnabledRateToTrueAdd, config.EnabledRateToFalseAdd)
}

// --------------------------- Attribute Helpers ---------------------------

func initFloatAttribute(rng *RNG, mean, stdev float64, initType string, minVal, maxVal float64) float64 {
	t := strings.ToLower(initType)
	if strings.Contains(t, "uniform") {
		lo := math.Max(minVal, mean-2*stdev)
		hi := math.Min(maxVal, mean+2*stdev)
		if hi < lo {
			hi = lo
		}
		return rng.Uniform(lo, hi)
	}
	return clamp(rng.Gauss(mean, stdev), minVal, maxVal)
}

// mutateFloatAttribute perturbs with probability mutateRate, otherwise
// resamples with probability replaceRate.
func mutateFloatAttribute(rng *RNG, value, mutateRate, replaceRate, mutatePower, initMean, initStdev float64, initType string, minVal, maxVal float64) float64 {
	r := rng.Float64()
	if r < mutateRate {
		return clamp(value+rng.Gauss(0, mutatePower), minVal, maxVal)
	}
	if r < mutateRate+replaceRate {
		return initFloatAttribute(rng, initMean, initStdev, initType, minVal, maxVal)
	}
	return value
}

func initBoolAttribute(rng *RNG, defaultVal string) bool {
	switch strings.ToLower(strings.TrimSpace(defaultVal)) {
	case "1", "on", "yes", "true":
		return true
	case "random", "none":
		return rng.Float64() < 0.5
	default:
		return false
	}
}

// mutateBoolAttribute picks a random value when triggered, so the rate has the
// same meaning as for string attributes: the value may or may not change.
func mutateBoolAttribute(rng *RNG, value bool, mutateRate, rateToTrueAdd, rateToFalseAdd float64) bool {
	if value {
		mutateRate += rateToFalseAdd
	} else {
		mutateRate += rateToTrueAdd
	}
	if rng.Bernoulli(mutateRate) {
		return rng.Float64() < 0.5
	}
	return value
}

func initStringAttribute(rng *RNG, defaultVal string, options []string) string {
	switch strings.ToLower(strings.TrimSpace(defaultVal)) {
	case "random", "none", "":
		return options[rng.IntN(len(options))]
	}
	return defaultVal
}

func mutateStringAttribute(rng *RNG, value string, mutateRate float64, options []string) string {
	if len(options) <= 1 {
		return value
	}
	if rng.Bernoulli(mutateRate) {
		return options[rng.IntN(len(options))]
	}
	return value
}
