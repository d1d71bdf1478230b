package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatimpl "github.com/foxseedlab/jimakun/external/chat"
	configloader "github.com/foxseedlab/jimakun/external/config"
	jobimpl "github.com/foxseedlab/jimakun/external/job"
	mediaimpl "github.com/foxseedlab/jimakun/external/media"
	metadataimpl "github.com/foxseedlab/jimakun/external/metadata"
	recognizerimpl "github.com/foxseedlab/jimakun/external/recognizer"
	storeimpl "github.com/foxseedlab/jimakun/external/store"
	translatorimpl "github.com/foxseedlab/jimakun/external/translator"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/job"
	"github.com/foxseedlab/jimakun/internal/observe"
	"github.com/foxseedlab/jimakun/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel"
)

const jobCleanupTimeout = 30 * time.Second

// The worker binary polls the job queue and runs caption jobs one at a time.
// A job is removed from the queue after its run terminates, success or
// failure; job-level retries are not this worker's business.
func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "jimakun-worker"})
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = shutdownMetrics(context.Background())
	}()
	go serveMetrics(cfg.MetricsListenAddr)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	driver, err := do.Invoke[*pipeline.Driver](injector)
	if err != nil {
		slog.Error("failed to construct pipeline", "error", err)
		os.Exit(1)
	}
	source, err := do.Invoke[job.Source](injector)
	if err != nil {
		slog.Error("failed to construct job source", "error", err)
		os.Exit(1)
	}

	slog.Info("startup: polling for jobs")
	runLoop(ctx, driver, source)
	slog.Info("worker stopped")
}

func runLoop(ctx context.Context, driver *pipeline.Driver, source job.Source) {
	for {
		spec, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("failed to fetch next job", "error", err)
			continue
		}
		slog.Info("job received", "job_id", spec.ID, "endpoint", spec.MediaEndpoint)

		if err := driver.Run(ctx, *spec); err != nil {
			slog.Error("caption run failed", "job_id", spec.ID, "error", err)
		}

		// The job is removed regardless of outcome. Use a fresh context so
		// shutdown does not leave the queue entry behind.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), jobCleanupTimeout)
		if err := source.Delete(cleanupCtx, spec.ID); err != nil {
			slog.Error("failed to delete job", "job_id", spec.ID, "error", err)
		}
		cancel()

		if ctx.Err() != nil {
			return
		}
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.Provide(injector, func(i do.Injector) (*observe.Metrics, error) {
		return observe.NewMetrics(otel.GetMeterProvider())
	})
	storeimpl.RegisterDI(injector)
	jobimpl.RegisterDI(injector)
	mediaimpl.RegisterDI(injector)
	chatimpl.RegisterDI(injector)
	metadataimpl.RegisterDI(injector)
	recognizerimpl.RegisterDI(injector)
	translatorimpl.RegisterDI(injector)
	pipeline.RegisterDI(injector)

	return injector
}
