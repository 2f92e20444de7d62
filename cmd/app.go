package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	appconfig "github.com/ca-srg/footprint/internal/config"
	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/logging"
	"github.com/ca-srg/footprint/internal/metrics"
	"github.com/ca-srg/footprint/internal/observability"
	"github.com/ca-srg/footprint/internal/searchclient"
	"github.com/ca-srg/footprint/internal/types"
)

// app is the per-command wiring shared by every front end.
type app struct {
	cfg      *types.Config
	logger   *zap.Logger
	client   *searchclient.Client
	shutdown observability.ShutdownFunc
}

// newApp loads configuration, builds the logger and search client and
// starts telemetry and usage counters. quiet keeps logs off the terminal.
func newApp(ctx context.Context, quiet bool) (*app, error) {
	cfg, err := appconfig.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg, logging.Options{Verbose: verbose, Quiet: quiet})
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.Init(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Telemetry disabled", zap.Error(err))
	}
	if err := metrics.InitOTelMetrics(); err != nil {
		logger.Warn("Failed to register search instruments", zap.Error(err))
	}

	if cfg.StatsEnabled {
		if err := metrics.Init(cfg.StatsPath, logger); err != nil {
			logger.Warn("Usage counters disabled", zap.Error(err))
		}
	}

	client, err := searchclient.NewClient(cfg, searchclient.WithLogger(logger))
	if err != nil {
		_ = shutdown(context.Background())
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	return &app{cfg: cfg, logger: logger, client: client, shutdown: shutdown}, nil
}

// dispatcher builds a Dispatcher recording usage under mode.
func (a *app) dispatcher(mode metrics.Mode, opts ...console.Option) *console.Dispatcher {
	opts = append([]console.Option{
		console.WithLogger(a.logger),
		console.WithRecorder(metrics.ForMode(mode)),
	}, opts...)
	return console.NewDispatcher(a.client, opts...)
}

func (a *app) Close() {
	if err := a.shutdown(context.Background()); err != nil {
		a.logger.Debug("Telemetry shutdown failed", zap.Error(err))
	}
	if err := metrics.Close(); err != nil {
		a.logger.Debug("Failed to close usage store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
