package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CheckpointRepo implements ports.CheckpointStore.
type CheckpointRepo struct {
	pool Pool
}

// NewCheckpointRepo creates a new CheckpointRepo.
func NewCheckpointRepo(pool Pool) *CheckpointRepo {
	return &CheckpointRepo{pool: pool}
}

// Get returns the saved position, or 0 if the relay never ran.
func (r *CheckpointRepo) Get(ctx context.Context, name string) (int64, error) {
	var position int64
	err := r.pool.QueryRow(ctx, `SELECT position FROM relay_checkpoints WHERE name = $1`, name).Scan(&position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get checkpoint %s: %w", name, err)
	}
	return position, nil
}

// Save upserts the position.
func (r *CheckpointRepo) Save(ctx context.Context, name string, position int64) error {
	query := `INSERT INTO relay_checkpoints (name, position, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET position = EXCLUDED.position, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, name, position); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", name, err)
	}
	return nil
}
