package store

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-engine/neat"
)

// MemoryStore keeps encoded checkpoints in memory. Stored checkpoints are
// independent of the live population that produced them.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[uuid.UUID]map[int][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.initialized = true
		s.runs = make(map[uuid.UUID]map[int][]byte)
	}
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, runID uuid.UUID, cp *neat.Checkpoint) error {
	payload, err := cp.MarshalBinary()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	run, ok := s.runs[runID]
	if !ok {
		run = make(map[int][]byte)
		s.runs[runID] = run
	}
	run[cp.Generation] = payload
	return nil
}

func (s *MemoryStore) LatestCheckpoint(_ context.Context, runID uuid.UUID) (*neat.Checkpoint, error) {
	s.mu.RLock()
	run := s.runs[runID]
	latest, found := -1, false
	for gen := range run {
		if gen > latest {
			latest, found = gen, true
		}
	}
	var payload []byte
	if found {
		payload = run[latest]
	}
	s.mu.RUnlock()

	if !found {
		return nil, ErrNotFound
	}
	return neat.DecodeCheckpoint(bytes.NewReader(payload))
}

func (s *MemoryStore) ListGenerations(_ context.Context, runID uuid.UUID) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gens := make([]int, 0, len(s.runs[runID]))
	for gen := range s.runs[runID] {
		gens = append(gens, gen)
	}
	slices.Sort(gens)
	return gens, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
