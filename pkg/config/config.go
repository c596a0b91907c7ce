package config

import (
	"time"

	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/telemetry/tracing"
)

// Config is the complete application configuration, loaded from YAML with
// optional environment overrides.
type Config struct {
	// DefaultProvider names the provider used when the caller does not pick
	// one explicitly.
	DefaultProvider string `yaml:"default_provider"`

	Transport TransportConfig           `yaml:"transport"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Telemetry TelemetryConfig           `yaml:"telemetry"`
	Health    HealthConfig              `yaml:"health"`
}

// TransportConfig selects and tunes the HTTP transport.
type TransportConfig struct {
	// Mode is auto, native or exec. auto probes the host and falls back to
	// the external curl client where the native TLS stack is unreliable.
	Mode string `yaml:"mode"`

	// CurlPath overrides the curl binary location for the exec transport.
	CurlPath string `yaml:"curl_path"`

	// ConnectTimeout is the default dial + TLS handshake budget.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ProviderConfig configures one provider instance.
type ProviderConfig struct {
	Type      string `yaml:"type"`
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	Stream    bool   `yaml:"stream"`

	// Client-credentials exchange, for token-authenticated providers.
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Extra parameters forwarded subject to each adapter's allow-list.
	Extra map[string]any `yaml:"extra"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// TelemetryConfig groups observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig  `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Tracing tracing.Config `yaml:"tracing"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// HealthConfig configures periodic provider reachability sweeps.
type HealthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Settings converts one provider entry into the adapter settings shape.
func (p ProviderConfig) Settings(name string) providers.Settings {
	return providers.Settings{
		Name:           name,
		Type:           p.Type,
		Endpoint:       p.Endpoint,
		APIKey:         p.APIKey,
		Model:          p.Model,
		MaxTokens:      p.MaxTokens,
		Stream:         p.Stream,
		TokenURL:       p.TokenURL,
		ClientID:       p.ClientID,
		ClientSecret:   p.ClientSecret,
		Extra:          p.Extra,
		ConnectTimeout: p.ConnectTimeout,
		Timeout:        p.Timeout,
		MaxRetries:     p.MaxRetries,
		RetryDelay:     p.RetryDelay,
	}
}

// ProviderSettings converts every provider entry, sorted by name order of
// the range (callers needing determinism sort the result).
func (c *Config) ProviderSettings() []providers.Settings {
	all := make([]providers.Settings, 0, len(c.Providers))
	for name, p := range c.Providers {
		all = append(all, p.Settings(name))
	}
	return all
}
