package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("db: run not found")

// RunSummary is the aggregate row for one simulation run.
type RunSummary struct {
	ID              int64
	Seed            uint64
	StartedAt       time.Time
	FinishedAt      *time.Time
	WavesCompleted  int
	EnemiesSpawned  int
	ExperienceTotal int
}

// RunRepository handles run rows.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Create inserts a new run and returns its id.
func (r *RunRepository) Create(ctx context.Context, seed uint64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO runs (seed) VALUES ($1) RETURNING id`,
		int64(seed),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating run: %w", err)
	}
	return id, nil
}

// Finish stores the final counters and marks the run finished.
func (r *RunRepository) Finish(ctx context.Context, s RunSummary) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE runs
		 SET finished_at = now(), waves_completed = $2, enemies_spawned = $3, experience_total = $4
		 WHERE id = $1`,
		s.ID, s.WavesCompleted, s.EnemiesSpawned, s.ExperienceTotal,
	)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finishing run %d: %w", s.ID, ErrRunNotFound)
	}
	return nil
}

// Get loads a run by id.
func (r *RunRepository) Get(ctx context.Context, id int64) (RunSummary, error) {
	var (
		s    RunSummary
		seed int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, seed, started_at, finished_at, waves_completed, enemies_spawned, experience_total
		 FROM runs WHERE id = $1`, id,
	).Scan(&s.ID, &seed, &s.StartedAt, &s.FinishedAt, &s.WavesCompleted, &s.EnemiesSpawned, &s.ExperienceTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RunSummary{}, fmt.Errorf("loading run %d: %w", id, ErrRunNotFound)
		}
		return RunSummary{}, fmt.Errorf("loading run %d: %w", id, err)
	}
	s.Seed = uint64(seed)
	return s, nil
}
