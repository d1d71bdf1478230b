package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxseedlab/jimakun/internal/job"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// db is the subset of pgxpool.Pool the queue uses.
type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresQueue hands out caption jobs from the caption_jobs table. A claimed
// job is leased rather than removed: if the worker dies mid-run the lease
// expires and the job is redelivered, which matches the
// duplicate-delivery-over-lost-delivery stance of the pipeline. Delete is
// called unconditionally once a run terminates.
type PostgresQueue struct {
	pool         db
	pollInterval time.Duration
	lease        time.Duration
}

func NewPostgresQueue(pool *pgxpool.Pool, pollInterval, lease time.Duration) *PostgresQueue {
	return &PostgresQueue{
		pool:         pool,
		pollInterval: pollInterval,
		lease:        lease,
	}
}

var _ job.Source = (*PostgresQueue)(nil)

func (q *PostgresQueue) Next(ctx context.Context) (*job.Spec, error) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()
	for {
		spec, err := q.claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Database trouble must not turn the poll into a hot loop;
			// wait out the interval like an empty queue.
			slog.Warn("job claim failed; retrying next interval", "error", err)
		}
		if spec != nil {
			return spec, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *PostgresQueue) claim(ctx context.Context) (*job.Spec, error) {
	row := q.pool.QueryRow(ctx,
		`UPDATE caption_jobs
		 SET leased_until = NOW() + make_interval(secs => $1)
		 WHERE id = (
			SELECT id FROM caption_jobs
			WHERE leased_until IS NULL OR leased_until < NOW()
			ORDER BY enqueued_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, media_endpoint, source_language, target_languages, chat_channel_id, metadata_endpoint`,
		q.lease.Seconds())
	var spec job.Spec
	err := row.Scan(&spec.ID, &spec.MediaEndpoint, &spec.SourceLanguage,
		&spec.TargetLanguages, &spec.ChatChannelID, &spec.MetadataEndpoint)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &spec, nil
}

func (q *PostgresQueue) Delete(ctx context.Context, jobID string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM caption_jobs WHERE id = $1`, jobID)
	return err
}

// Enqueue inserts a job and returns its assigned id. Used by operator tooling
// and tests; production jobs normally arrive from an upstream scheduler
// writing the same table.
func (q *PostgresQueue) Enqueue(ctx context.Context, spec job.Spec) (string, error) {
	row := q.pool.QueryRow(ctx,
		`INSERT INTO caption_jobs (media_endpoint, source_language, target_languages, chat_channel_id, metadata_endpoint)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		spec.MediaEndpoint, spec.SourceLanguage, spec.TargetLanguages,
		spec.ChatChannelID, spec.MetadataEndpoint)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
