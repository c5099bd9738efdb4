package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

var rankedColumns = []string{"hour", "domain_code", "page_title", "count_views", "total_response_size", "rank", "run_id"}

// RankedPageviewRepoImpl copies each hour's ranked rows into top_pageviews.
type RankedPageviewRepoImpl struct {
	db *pgxpool.Pool
}

func NewRankedPageviewRepo(db *pgxpool.Pool) *RankedPageviewRepoImpl {
	return &RankedPageviewRepoImpl{db: db}
}

func (r *RankedPageviewRepoImpl) Name() string { return "postgres" }

// Publish replaces the rows stored for the result's hour within one transaction.
func (r *RankedPageviewRepoImpl) Publish(ctx context.Context, result *repository.HourResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	hour := result.Window.Hour
	if _, err := tx.Exec(ctx, `DELETE FROM top_pageviews WHERE hour = $1`, hour); err != nil {
		return err
	}

	runID, err := uuid.Parse(result.RunID)
	if err != nil {
		return fmt.Errorf("run id %q: %w", result.RunID, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"top_pageviews"}, rankedColumns, rankedRowSource(runID, result))
	if err != nil {
		return fmt.Errorf("copy top_pageviews for %s: %w", result.Window.Key(), err)
	}
	if int(n) != len(result.Rows) {
		return fmt.Errorf("copy top_pageviews for %s: copied %d of %d rows", result.Window.Key(), n, len(result.Rows))
	}

	return tx.Commit(ctx)
}

func rankedRowSource(runID uuid.UUID, result *repository.HourResult) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(result.Rows), func(i int) ([]any, error) {
		return rankedRowValues(runID, result.Window.Hour, result.Rows[i]), nil
	})
}

func rankedRowValues(runID uuid.UUID, hour time.Time, row entity.RankedRow) []any {
	return []any{
		hour,
		row.DomainCode,
		row.PageTitle,
		row.CountViews,
		row.TotalResponseSize,
		int32(row.Rank),
		runID,
	}
}
