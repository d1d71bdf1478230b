package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	chatimpl "github.com/foxseedlab/jimakun/external/chat"
	configloader "github.com/foxseedlab/jimakun/external/config"
	mediaimpl "github.com/foxseedlab/jimakun/external/media"
	metadataimpl "github.com/foxseedlab/jimakun/external/metadata"
	recognizerimpl "github.com/foxseedlab/jimakun/external/recognizer"
	storeimpl "github.com/foxseedlab/jimakun/external/store"
	translatorimpl "github.com/foxseedlab/jimakun/external/translator"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/job"
	"github.com/foxseedlab/jimakun/internal/observe"
	"github.com/foxseedlab/jimakun/internal/pipeline"
	"github.com/google/uuid"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel"
)

// The backend binary runs exactly one caption job described by the process
// environment and exits: zero on natural end of stream or graceful signal,
// non-zero on any fatal pipeline error.
func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "jimakun-backend"})
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = shutdownMetrics(context.Background())
	}()

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	driver, err := do.Invoke[*pipeline.Driver](injector)
	if err != nil {
		slog.Error("failed to construct pipeline", "error", err)
		os.Exit(1)
	}

	spec := job.Spec{
		ID:               uuid.NewString(),
		MediaEndpoint:    cfg.MediaEndpoint,
		SourceLanguage:   cfg.SourceLanguage,
		TargetLanguages:  cfg.TargetLanguages,
		ChatChannelID:    cfg.ChatChannelID,
		MetadataEndpoint: cfg.MetadataEndpoint,
	}

	runErr := driver.Run(ctx, spec)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("caption run failed", "error", runErr)
		os.Exit(1)
	}
	slog.Info("caption run finished")
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateSingleJob(); err != nil {
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

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	mustProvideMetrics(injector)
	storeimpl.RegisterDI(injector)
	mediaimpl.RegisterDI(injector)
	chatimpl.RegisterDI(injector)
	metadataimpl.RegisterDI(injector)
	recognizerimpl.RegisterDI(injector)
	translatorimpl.RegisterDI(injector)
	pipeline.RegisterDI(injector)

	return injector
}

func mustProvideMetrics(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*observe.Metrics, error) {
		return observe.NewMetrics(otel.GetMeterProvider())
	})
}
