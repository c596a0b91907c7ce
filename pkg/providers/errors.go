package providers

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the caller aborted an in-flight query. It is
// never retried and never wrapped into a provider failure message.
var ErrCancelled = errors.New("request cancelled")

// maxExcerpt bounds the raw payload carried in diagnostics.
const maxExcerpt = 256

// Excerpt truncates a raw response body for inclusion in error text.
func Excerpt(body []byte) string {
	if len(body) > maxExcerpt {
		return string(body[:maxExcerpt]) + "..."
	}
	return string(body)
}

// ConfigError reports invalid provider configuration. It fails fast: no
// network call is attempted.
type ConfigError struct {
	// Provider is the name of the misconfigured provider instance.
	Provider string

	// Field is the configuration field that is invalid.
	Field string

	// Message describes what is wrong with the field.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ConnectionError reports a DNS, TLS or socket failure, or a failure of the
// fallback process invocation. The executor retries these a bounded number of
// times before one is surfaced.
type ConnectionError struct {
	// Provider is the name of the provider the request was bound for.
	Provider string

	// Detail is the low-level failure description.
	Detail string
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("provider %q connection error: %s", e.Provider, e.Detail)
}

// HTTPError reports a non-2xx status whose body did not decode into a
// provider error object. The raw body is kept for diagnosis.
type HTTPError struct {
	// Provider is the name of the provider that returned the status.
	Provider string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the raw response body.
	Body []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider %q returned status %d: %s",
		e.Provider, e.StatusCode, Excerpt(e.Body))
}

// RemoteError is a well-formed error object returned by the provider. Message
// holds the most specific field available (code, message, type priority).
type RemoteError struct {
	// Provider is the name of the provider that returned the error.
	Provider string

	// Code is the provider's error code, when present.
	Code string

	// Type is the provider's error type, when present.
	Type string

	// Message is the human-readable error text.
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("provider %q error %s: %s", e.Provider, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
	case e.Code != "":
		return fmt.Sprintf("provider %q error %s", e.Provider, e.Code)
	default:
		return fmt.Sprintf("provider %q error of type %s", e.Provider, e.Type)
	}
}

// ParseError reports a response body that is not valid JSON or not any shape
// the adapter knows. Always an error value, never a panic.
type ParseError struct {
	// Provider is the name of the provider that returned the payload.
	Provider string

	// Raw is a truncated excerpt of the payload, for diagnosis.
	Raw string

	// Cause is the underlying decode error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q unexpected response shape: %v (body: %s)",
			e.Provider, e.Cause, e.Raw)
	}
	return fmt.Sprintf("provider %q unexpected response shape (body: %s)", e.Provider, e.Raw)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError reports an invalid request before any network call.
type ValidationError struct {
	// Field is the name of the invalid field.
	Field string

	// Message describes what is invalid about the field.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}
