package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omer-faruq/assistant-core/internal/platform"
	"github.com/omer-faruq/assistant-core/pkg/config"
	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/providerfactory"
	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/telemetry/logging"
	"github.com/omer-faruq/assistant-core/pkg/telemetry/metrics"
	"github.com/omer-faruq/assistant-core/pkg/telemetry/tracing"
)

// app bundles everything a command needs after configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	tracer  *tracing.Tracer
	manager *providerfactory.Manager
}

// buildApp loads configuration and assembles transport, telemetry and the
// provider set. The returned shutdown func flushes telemetry and closes all
// adapters.
func buildApp(cfgPath string) (*app, func(), error) {
	cfg, err := config.LoadWithEnvOverrides(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Telemetry.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Telemetry.Logging.Format,
		Redact: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configuring logging: %w", err)
	}
	slogger := logger.Slog()

	tracer, err := tracing.New(cfg.Telemetry.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring tracing: %w", err)
	}

	tr, err := platform.NewTransport(platform.Options{
		Mode:           cfg.Transport.Mode,
		CurlPath:       cfg.Transport.CurlPath,
		ConnectTimeout: cfg.Transport.ConnectTimeout,
		Logger:         slogger,
	})
	if err != nil {
		return nil, nil, err
	}

	deps := providers.Deps{
		Executor: dispatch.NewExecutor(tr, dispatch.Options{Logger: slogger}),
		Runner:   dispatch.NewRunner(slogger),
		Logger:   slogger,
	}

	if cfg.Telemetry.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		deps.Metrics = metrics.NewProviderMetrics(metrics.Options{}, registry)

		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, metrics.Handler(registry))
		go func() {
			if err := http.ListenAndServe(cfg.Telemetry.Metrics.Listen, mux); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	manager := providerfactory.NewManager(deps)
	if err := manager.Build(cfg.ProviderSettings()); err != nil {
		return nil, nil, err
	}
	if cfg.Health.Enabled {
		if err := manager.StartHealthSweeps(cfg.Health.Interval); err != nil {
			return nil, nil, err
		}
	}

	a := &app{cfg: cfg, logger: logger, tracer: tracer, manager: manager}
	shutdown := func() {
		manager.Stop()
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}
	return a, shutdown, nil
}
