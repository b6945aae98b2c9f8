package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-engine/neat"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps checkpoints in a single SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, runID uuid.UUID, cp *neat.Checkpoint) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := cp.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, generation, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			payload = excluded.payload
	`, runID.String(), cp.Generation, payload)
	if err != nil {
		return fmt.Errorf("save checkpoint %s/%d: %w", runID, cp.Generation, err)
	}
	return nil
}

func (s *SQLiteStore) LatestCheckpoint(ctx context.Context, runID uuid.UUID) (*neat.Checkpoint, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var (
		generation int
		payload    []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT generation, payload FROM checkpoints
		WHERE run_id = ?
		ORDER BY generation DESC
		LIMIT 1
	`, runID.String()).Scan(&generation, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cp, err := neat.DecodeCheckpoint(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint %s/%d: %w", runID, generation, err)
	}
	return cp, nil
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, runID uuid.UUID) ([]int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation FROM checkpoints
		WHERE run_id = ?
		ORDER BY generation
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gens := []int{}
	for rows.Next() {
		var gen int
		if err := rows.Scan(&gen); err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}
	return gens, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
