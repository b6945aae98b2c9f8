package neat

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFitness is returned when the evaluator leaves a genome without a fitness value.
	ErrMissingFitness = errors.New("genome has no fitness after evaluation")
	// ErrCompleteExtinction is returned when every species is removed and no offspring were produced.
	ErrCompleteExtinction = errors.New("complete extinction")
)

// ConfigError reports an invalid or out-of-range configuration setting.
type ConfigError struct {
	Section string
	Key     string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: [%s] %s: %s", e.Section, e.Key, e.Reason)
}

// MissingFitnessError names the genome the evaluator did not score.
type MissingFitnessError struct {
	GenomeKey  int
	Generation int
}

func (e *MissingFitnessError) Error() string {
	return fmt.Sprintf("generation %d: genome %d: %v", e.Generation, e.GenomeKey, ErrMissingFitness)
}

func (e *MissingFitnessError) Unwrap() error {
	return ErrMissingFitness
}
