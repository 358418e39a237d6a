package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WaveResult is one completed wave.
type WaveResult struct {
	RunID         int64
	Wave          int
	TotalEnemies  int
	StartedTick   uint64
	CompletedTick uint64
	CompletedAt   time.Time
}

// WaveResultRepository handles wave_results rows.
type WaveResultRepository struct {
	pool *pgxpool.Pool
}

// NewWaveResultRepository creates a new wave result repository
func NewWaveResultRepository(pool *pgxpool.Pool) *WaveResultRepository {
	return &WaveResultRepository{pool: pool}
}

// Save upserts a wave result. A wave completed twice in one run keeps the latest.
func (r *WaveResultRepository) Save(ctx context.Context, w WaveResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wave_results (run_id, wave, total_enemies, started_tick, completed_tick)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, wave) DO UPDATE
		 SET total_enemies = EXCLUDED.total_enemies,
		     started_tick = EXCLUDED.started_tick,
		     completed_tick = EXCLUDED.completed_tick,
		     completed_at = now()`,
		w.RunID, w.Wave, w.TotalEnemies, int64(w.StartedTick), int64(w.CompletedTick),
	)
	if err != nil {
		return fmt.Errorf("saving wave %d of run %d: %w", w.Wave, w.RunID, err)
	}
	return nil
}

// ListByRun returns a run's wave results ordered by wave number.
func (r *WaveResultRepository) ListByRun(ctx context.Context, runID int64) ([]WaveResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT run_id, wave, total_enemies, started_tick, completed_tick, completed_at
		 FROM wave_results WHERE run_id = $1 ORDER BY wave`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading waves of run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []WaveResult
	for rows.Next() {
		var (
			w                  WaveResult
			started, completed int64
		)
		if err := rows.Scan(&w.RunID, &w.Wave, &w.TotalEnemies, &started, &completed, &w.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning wave row: %w", err)
		}
		w.StartedTick = uint64(started)
		w.CompletedTick = uint64(completed)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wave rows: %w", err)
	}
	return out, nil
}
