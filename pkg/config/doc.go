// Package config loads, validates and watches the application's YAML
// configuration file. Environment variables in the ASSISTANT_* namespace
// override file values, so credentials can stay out of configuration files.
package config
