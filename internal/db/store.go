package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence surface the Recorder writes to.
type Store interface {
	SaveWave(ctx context.Context, w WaveResult) error
	SaveGrant(ctx context.Context, g Grant) error
	FinishRun(ctx context.Context, s RunSummary) error
}

// PgStore implements Store over the repositories.
type PgStore struct {
	Runs       *RunRepository
	Waves      *WaveResultRepository
	Experience *ExperienceRepository
}

// NewPgStore creates a store backed by pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{
		Runs:       NewRunRepository(pool),
		Waves:      NewWaveResultRepository(pool),
		Experience: NewExperienceRepository(pool),
	}
}

// SaveWave implements Store.
func (s *PgStore) SaveWave(ctx context.Context, w WaveResult) error {
	return s.Waves.Save(ctx, w)
}

// SaveGrant implements Store.
func (s *PgStore) SaveGrant(ctx context.Context, g Grant) error {
	return s.Experience.Save(ctx, g)
}

// FinishRun implements Store.
func (s *PgStore) FinishRun(ctx context.Context, summary RunSummary) error {
	return s.Runs.Finish(ctx, summary)
}
