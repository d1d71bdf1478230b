package store

import (
	"context"

	"github.com/foxseedlab/jimakun/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) store.Store {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveTranscript(ctx context.Context, record store.TranscriptRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcripts (job_id, result_id, language_code, content, start_ms, end_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.JobID, record.ResultID, record.LanguageCode, record.Text,
		record.Start.Milliseconds(), record.End.Milliseconds())
	return err
}
