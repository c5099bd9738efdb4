package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

// HourStatusRepoImpl keeps the hourly_runs ledger.
type HourStatusRepoImpl struct {
	db *pgxpool.Pool
}

func NewHourStatusRepo(db *pgxpool.Pool) *HourStatusRepoImpl {
	return &HourStatusRepoImpl{db: db}
}

// Save creates or replaces the ledger row of an hour.
func (r *HourStatusRepoImpl) Save(ctx context.Context, s *entity.HourStatus) error {
	query := `
		INSERT INTO hourly_runs (hour, run_id, status, download_failed, rows_loaded, rows_ranked, output_path, failure_reason, duration_ms, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (hour) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			status = EXCLUDED.status,
			download_failed = EXCLUDED.download_failed,
			rows_loaded = EXCLUDED.rows_loaded,
			rows_ranked = EXCLUDED.rows_ranked,
			output_path = EXCLUDED.output_path,
			failure_reason = EXCLUDED.failure_reason,
			duration_ms = EXCLUDED.duration_ms,
			processed_at = EXCLUDED.processed_at;
	`
	runID, err := uuid.Parse(s.RunID)
	if err != nil {
		return fmt.Errorf("run id %q: %w", s.RunID, err)
	}
	_, err = r.db.Exec(ctx, query,
		s.Hour,
		runID,
		s.Status,
		s.DownloadFailed,
		s.RowsLoaded,
		s.RowsRanked,
		s.OutputPath,
		s.FailureReason,
		s.DurationMS,
		s.ProcessedAt,
	)
	return err
}

// Find retrieves the ledger row of an hour.
func (r *HourStatusRepoImpl) Find(ctx context.Context, hour time.Time) (*entity.HourStatus, error) {
	query := `
		SELECT hour, run_id::text, status, download_failed, rows_loaded, rows_ranked, output_path, failure_reason, duration_ms, processed_at
		FROM hourly_runs
		WHERE hour = $1;
	`
	var s entity.HourStatus
	err := r.db.QueryRow(ctx, query, hour).Scan(
		&s.Hour,
		&s.RunID,
		&s.Status,
		&s.DownloadFailed,
		&s.RowsLoaded,
		&s.RowsRanked,
		&s.OutputPath,
		&s.FailureReason,
		&s.DurationMS,
		&s.ProcessedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
