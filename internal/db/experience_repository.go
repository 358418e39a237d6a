package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Grant is one experience award.
type Grant struct {
	RunID     int64
	Amount    int
	Reason    string
	GrantedAt time.Time
}

// ExperienceRepository handles experience_grants rows.
type ExperienceRepository struct {
	pool *pgxpool.Pool
}

// NewExperienceRepository creates a new experience repository
func NewExperienceRepository(pool *pgxpool.Pool) *ExperienceRepository {
	return &ExperienceRepository{pool: pool}
}

// Save inserts a grant.
func (r *ExperienceRepository) Save(ctx context.Context, g Grant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO experience_grants (run_id, amount, reason) VALUES ($1, $2, $3)`,
		g.RunID, g.Amount, g.Reason,
	)
	if err != nil {
		return fmt.Errorf("saving grant for run %d: %w", g.RunID, err)
	}
	return nil
}

// ListByRun returns a run's grants in insertion order.
func (r *ExperienceRepository) ListByRun(ctx context.Context, runID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT run_id, amount, reason, granted_at
		 FROM experience_grants WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading grants of run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.RunID, &g.Amount, &g.Reason, &g.GrantedAt); err != nil {
			return nil, fmt.Errorf("scanning grant row: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating grant rows: %w", err)
	}
	return out, nil
}

// TotalByRun sums a run's grants.
func (r *ExperienceRepository) TotalByRun(ctx context.Context, runID int64) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM experience_grants WHERE run_id = $1`, runID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing grants of run %d: %w", runID, err)
	}
	return total, nil
}
