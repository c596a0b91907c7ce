package transport

import (
	"net/url"
	"strings"
)

// Header and query names whose values carry credentials. Matching is
// case-insensitive and substring-based so provider-specific variants
// (x-api-key, x-goog-api-key) are caught too.
var sensitiveHeaderParts = []string{
	"authorization",
	"api-key",
	"api_key",
	"apikey",
	"token",
	"secret",
	"cookie",
}

var sensitiveQueryKeys = []string{
	"key",
	"api_key",
	"apikey",
	"access_token",
	"token",
	"client_secret",
}

// RedactHeaders returns a copy of headers safe to log: credential-bearing
// values are replaced, all other values pass through unchanged.
func RedactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		if isSensitiveHeader(key) {
			out[key] = redactValue(value)
		} else {
			out[key] = value
		}
	}
	return out
}

// RedactURL returns the URL with credential-bearing query parameter values
// replaced. Unparseable URLs are fully redacted rather than leaked.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	changed := false
	for name := range q {
		if isSensitiveQueryKey(name) {
			q.Set(name, "***")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, part := range sensitiveHeaderParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

func isSensitiveQueryKey(name string) bool {
	lower := strings.ToLower(name)
	for _, key := range sensitiveQueryKeys {
		if lower == key {
			return true
		}
	}
	return false
}

// redactValue keeps the scheme word of values like "Bearer <token>" for
// debuggability while dropping the secret itself.
func redactValue(value string) string {
	if scheme, _, ok := strings.Cut(value, " "); ok && (scheme == "Bearer" || scheme == "Basic") {
		return scheme + " ***"
	}
	return "***"
}
