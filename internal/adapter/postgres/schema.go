package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables used by the Postgres sinks. It is safe to apply
// more than once.
const Schema = `
CREATE TABLE IF NOT EXISTS top_pageviews (
	hour                timestamp   NOT NULL,
	domain_code         text        NOT NULL,
	page_title          text        NOT NULL,
	count_views         bigint      NOT NULL,
	total_response_size bigint      NOT NULL,
	rank                integer     NOT NULL,
	run_id              uuid        NOT NULL,
	CONSTRAINT top_pageviews_pkey PRIMARY KEY (hour, domain_code, rank)
);

CREATE INDEX IF NOT EXISTS top_pageviews_domain_idx ON top_pageviews (domain_code, hour);

CREATE TABLE IF NOT EXISTS hourly_runs (
	hour            timestamp   PRIMARY KEY,
	run_id          uuid        NOT NULL,
	status          text        NOT NULL,
	download_failed boolean     NOT NULL DEFAULT false,
	rows_loaded     integer     NOT NULL DEFAULT 0,
	rows_ranked     integer     NOT NULL DEFAULT 0,
	output_path     text        NOT NULL DEFAULT '',
	failure_reason  text        NOT NULL DEFAULT '',
	duration_ms     bigint      NOT NULL DEFAULT 0,
	processed_at    timestamptz NOT NULL DEFAULT NOW()
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, Schema)
	return err
}
