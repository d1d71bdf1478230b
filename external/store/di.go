package store

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const databaseInitTimeout = 15 * time.Second

// RegisterDI provides the shared connection pool (also consumed by the job
// queue) and the transcript store on top of it.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*pgxpool.Pool, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		p, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := RunMigration(ctx, p); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
		return p, nil
	})
	do.Provide(injector, func(i do.Injector) (store.Store, error) {
		return NewPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})
}
