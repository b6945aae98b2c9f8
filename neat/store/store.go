// Package store persists run checkpoints so an interrupted run can resume
// from its latest completed generation.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-engine/neat"
)

// ErrNotFound is returned when a run has no stored checkpoint.
var ErrNotFound = errors.New("checkpoint not found")

// Store saves checkpoints per run, keyed by the generation they resume from.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, runID uuid.UUID, cp *neat.Checkpoint) error
	LatestCheckpoint(ctx context.Context, runID uuid.UUID) (*neat.Checkpoint, error)
	ListGenerations(ctx context.Context, runID uuid.UUID) ([]int, error)
	Close() error
}

// NewRunID returns a fresh random run identifier.
func NewRunID() uuid.UUID {
	return uuid.New()
}

// Sink adapts a Store to the population checkpointer.
func Sink(ctx context.Context, s Store, runID uuid.UUID) neat.CheckpointSink {
	return neat.CheckpointSinkFunc(func(cp *neat.Checkpoint) error {
		return s.SaveCheckpoint(ctx, runID, cp)
	})
}

// Resume restores the population of the latest checkpoint of a run.
func Resume(ctx context.Context, s Store, runID uuid.UUID) (*neat.Population, error) {
	cp, err := s.LatestCheckpoint(ctx, runID)
	if err != nil {
		return nil, err
	}
	return neat.RestorePopulation(cp)
}
