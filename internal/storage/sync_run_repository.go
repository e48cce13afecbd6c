package storage

import (
	"context"
	"fmt"

	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/types"
)

// SyncRunRepository stores per-network reconciliation cycle reports in
// ClickHouse for operator reporting
type SyncRunRepository struct {
	db *ClickHouseDB
}

// NewSyncRunRepository creates a new sync run repository
func NewSyncRunRepository(db *ClickHouseDB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Insert records one network's slice of a reconciliation cycle
func (r *SyncRunRepository) Insert(ctx context.Context, run *models.SyncRun) error {
	query := `
		INSERT INTO sync_runs (network, started_at, fetched, imported, updated, credited, errors, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.Exec(ctx, query,
		string(run.Network),
		run.StartedAt,
		run.Fetched,
		run.Imported,
		run.Updated,
		run.Credited,
		run.Errors,
		run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// ListRecent returns the most recent sync run reports, newest first
func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT network, started_at, fetched, imported, updated, credited, errors, duration_ms
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var network string
		err := rows.Scan(
			&network,
			&run.StartedAt,
			&run.Fetched,
			&run.Imported,
			&run.Updated,
			&run.Credited,
			&run.Errors,
			&run.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.Network = types.Network(network)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
