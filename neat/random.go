package neat

import (
	"fmt"
	"math/rand/v2"
)

// RNG is the single random source of a run. Every stochastic operation in the
// engine takes it explicitly so runs are reproducible under a fixed seed.
type RNG struct {
	*rand.Rand
	src *rand.PCG
}

// NewRNG returns a generator seeded with seed.
func NewRNG(seed uint64) *RNG {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &RNG{Rand: rand.New(src), src: src}
}

// State returns the serialized generator state.
func (r *RNG) State() ([]byte, error) {
	b, err := r.src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal rng state: %w", err)
	}
	return b, nil
}

// SetState restores a state produced by State.
func (r *RNG) SetState(state []byte) error {
	if err := r.src.UnmarshalBinary(state); err != nil {
		return fmt.Errorf("unmarshal rng state: %w", err)
	}
	return nil
}

// Bernoulli reports whether a trial with probability p succeeded.
func (r *RNG) Bernoulli(p float64) bool {
	return p > 0 && r.Float64() < p
}

// Gauss samples from a normal distribution with the given mean and stdev.
func (r *RNG) Gauss(mean, stdev float64) float64 {
	return r.NormFloat64()*stdev + mean
}

// Uniform samples uniformly from [lo, hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
