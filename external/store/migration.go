package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS transcripts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		job_id TEXT NOT NULL,
		result_id TEXT NOT NULL,
		language_code TEXT NOT NULL,
		content TEXT NOT NULL,
		start_ms BIGINT NOT NULL DEFAULT 0,
		end_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcripts_job ON transcripts (job_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS caption_jobs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		media_endpoint TEXT NOT NULL,
		source_language TEXT NOT NULL,
		target_languages TEXT[] NOT NULL DEFAULT '{}',
		chat_channel_id TEXT NOT NULL,
		metadata_endpoint TEXT NOT NULL DEFAULT '',
		enqueued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		leased_until TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_caption_jobs_ready ON caption_jobs (enqueued_at) WHERE leased_until IS NULL`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
