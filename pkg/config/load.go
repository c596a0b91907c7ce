package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path, fills defaults and validates. No
// environment overrides are applied; use LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads the file and then applies environment
// overrides in the form ASSISTANT_SECTION_FIELD, re-validating the result.
// Environment variables always win over file values, which keeps secrets
// out of configuration files.
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("ASSISTANT_DEFAULT_PROVIDER"); val != "" {
		cfg.DefaultProvider = val
	}
	if val := os.Getenv("ASSISTANT_TRANSPORT_MODE"); val != "" {
		cfg.Transport.Mode = val
	}
	if val := os.Getenv("ASSISTANT_TRANSPORT_CURL_PATH"); val != "" {
		cfg.Transport.CurlPath = val
	}
	if val := os.Getenv("ASSISTANT_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("ASSISTANT_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("ASSISTANT_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	for name := range cfg.Providers {
		applyProviderEnvOverrides(cfg, name)
	}
}

// applyProviderEnvOverrides applies ASSISTANT_PROVIDERS_<NAME>_<FIELD>
// overrides for one configured provider. Credentials are the main use.
func applyProviderEnvOverrides(cfg *Config, name string) {
	p := cfg.Providers[name]
	prefix := fmt.Sprintf("ASSISTANT_PROVIDERS_%s_", strings.ToUpper(name))

	if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
		p.Endpoint = val
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		p.APIKey = val
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		p.Model = val
	}
	if val := os.Getenv(prefix + "CLIENT_ID"); val != "" {
		p.ClientID = val
	}
	if val := os.Getenv(prefix + "CLIENT_SECRET"); val != "" {
		p.ClientSecret = val
	}
	if val := os.Getenv(prefix + "TOKEN_URL"); val != "" {
		p.TokenURL = val
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			p.Timeout = d
		}
	}
	if val := os.Getenv(prefix + "MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			p.MaxRetries = i
		}
	}

	cfg.Providers[name] = p
}
