package job

import (
	"time"

	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/job"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (job.Source, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pool := do.MustInvoke[*pgxpool.Pool](i)
		return NewPostgresQueue(pool,
			time.Duration(cfg.JobPollIntervalSec)*time.Second,
			time.Duration(cfg.JobLeaseSec)*time.Second), nil
	})
}
