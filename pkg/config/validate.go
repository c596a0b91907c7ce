package config

import (
	"fmt"
	"net/url"
)

var validTransportModes = map[string]bool{"auto": true, "native": true, "exec": true}

var validProviderTypes = map[string]bool{
	"openai":    true,
	"generic":   true,
	"anthropic": true,
	"gemini":    true,
	"qianfan":   true,
}

// Validate checks the configuration for errors that would otherwise surface
// only at request time.
func Validate(cfg *Config) error {
	if !validTransportModes[cfg.Transport.Mode] {
		return fmt.Errorf("transport.mode %q is not one of auto, native, exec", cfg.Transport.Mode)
	}

	if len(cfg.Providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	for name, p := range cfg.Providers {
		if err := validateProvider(name, p); err != nil {
			return err
		}
	}

	if cfg.DefaultProvider != "" {
		if _, ok := cfg.Providers[cfg.DefaultProvider]; !ok {
			return fmt.Errorf("default_provider %q is not a configured provider", cfg.DefaultProvider)
		}
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format %q is not one of json, text", cfg.Telemetry.Logging.Format)
	}

	if cfg.Telemetry.Tracing.Enabled && cfg.Telemetry.Tracing.Endpoint == "" {
		return fmt.Errorf("telemetry.tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

func validateProvider(name string, p ProviderConfig) error {
	if !validProviderTypes[p.Type] {
		return fmt.Errorf("provider %q: type %q is not supported", name, p.Type)
	}
	if p.Endpoint == "" {
		return fmt.Errorf("provider %q: endpoint is required", name)
	}
	if u, err := url.Parse(p.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("provider %q: endpoint %q is not an absolute URL", name, p.Endpoint)
	}
	if p.Model == "" {
		return fmt.Errorf("provider %q: model is required", name)
	}

	if p.Type == "qianfan" {
		switch {
		case p.TokenURL == "":
			return fmt.Errorf("provider %q: token_url is required for token-authenticated providers", name)
		case p.ClientID == "" || p.ClientSecret == "":
			return fmt.Errorf("provider %q: client_id and client_secret are required for token-authenticated providers", name)
		}
	} else if p.APIKey == "" {
		return fmt.Errorf("provider %q: api_key is required", name)
	}

	return nil
}
