package logging

import (
	"regexp"
	"strings"
)

// Redactor removes credential material from log values. It targets the
// secrets this core actually handles: API keys, bearer tokens, OAuth client
// secrets, and URL-embedded keys.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
	PatternQueryKey    = "query_key"
	PatternSecretField = "secret_field"
)

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	specs := []struct {
		name        string
		regex       string
		replacement string
	}{
		// Authorization header values
		{PatternBearerToken, `(?i)(bearer|basic)\s+[a-zA-Z0-9\-._~+/]+=*`, "$1 ***"},

		// Vendor API key shapes (OpenAI sk-, Anthropic sk-ant-, Google AIza)
		{PatternAPIKey, `(sk-[a-zA-Z0-9\-]+|AIza[a-zA-Z0-9\-_]+)`, "***"},

		// Credential-bearing URL query parameters
		{PatternQueryKey, `(?i)([?&](?:key|api_key|access_token|client_secret|token)=)[^&\s"]+`, "$1***"},

		// key: value and key=value forms in free text
		{PatternSecretField, `(?i)(api[-_]?key|client[-_]?secret|access[-_]?token|password)["']?\s*[:=]\s*["']?[^\s,"'}]+`, "$1: ***"},
	}

	r := &Redactor{}
	for _, s := range specs {
		r.patterns = append(r.patterns, &redactPattern{
			name:        s.name,
			regex:       regexp.MustCompile(s.regex),
			replacement: s.replacement,
		})
	}
	return r
}

// RedactString redacts credentials from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	redacted := value
	for _, p := range r.patterns {
		redacted = p.regex.ReplaceAllString(redacted, p.replacement)
	}
	return redacted
}

// RedactArgs redacts credentials from key-value log arguments. Values whose
// key names sensitive material are replaced wholesale; remaining string
// values go through pattern redaction.
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && isSensitiveKey(key) {
			redacted[i] = "***"
			continue
		}
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}
	return redacted
}

// isSensitiveKey reports whether a log key names credential material.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{
		"password", "secret", "token", "api_key", "apikey", "authorization", "credential",
	} {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
