package migrations

import "time"

// IngestStats creates the ingestion statistics snapshot table
var IngestStats = &Migration{
	ID:   "002_ingest_stats",
	Name: "002_ingest_stats",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS ingest_stats (
			time TIMESTAMPTZ NOT NULL,
			total_runs BIGINT NOT NULL,
			failed_runs BIGINT NOT NULL,
			fetched_flights BIGINT NOT NULL,
			normalized_flights BIGINT NOT NULL,
			dropped_flights BIGINT NOT NULL,
			inserted_flights BIGINT NOT NULL,
			updated_flights BIGINT NOT NULL,
			cleaned_flights BIGINT NOT NULL,
			processing_time_ms BIGINT NOT NULL,
			last_run_time TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_ingest_stats_time ON ingest_stats (time DESC);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS ingest_stats;
	`,
	CreatedAt: time.Now(),
}
