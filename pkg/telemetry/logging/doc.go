// Package logging provides the structured, credential-redacting diagnostic
// sink the core emits to. It wraps log/slog; the Redactor strips bearer
// tokens, API keys, and URL-embedded credentials out of every string value
// before it reaches the handler.
package logging
