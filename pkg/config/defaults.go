package config

import "time"

// ApplyDefaults fills unset fields with their defaults. Called by Load
// before validation.
func ApplyDefaults(cfg *Config) {
	if cfg.Transport.Mode == "" {
		cfg.Transport.Mode = "auto"
	}
	if cfg.Transport.ConnectTimeout == 0 {
		cfg.Transport.ConnectTimeout = 10 * time.Second
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "text"
	}
	if cfg.Telemetry.Metrics.Listen == "" {
		cfg.Telemetry.Metrics.Listen = ":9091"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = "assistant-core"
	}

	if cfg.Health.Interval == 0 {
		cfg.Health.Interval = 30 * time.Second
	}

	for name, p := range cfg.Providers {
		if p.Type == "" {
			p.Type = "openai"
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = 2
		}
		if p.RetryDelay == 0 {
			p.RetryDelay = 2 * time.Second
		}
		cfg.Providers[name] = p
	}

	if cfg.DefaultProvider == "" && len(cfg.Providers) == 1 {
		for name := range cfg.Providers {
			cfg.DefaultProvider = name
		}
	}
}
