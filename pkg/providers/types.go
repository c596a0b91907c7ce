package providers

import (
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the canonical conversation. The sequence handed to
// an adapter is ordered and immutable; adapters clone before any
// provider-specific rewriting so the caller's copy is never altered.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name optionally identifies the speaker for providers that support it.
	Name string `json:"name,omitempty"`

	// Reasoning carries internal chain-of-thought annotations. It is
	// stripped before a message list crosses a provider wire.
	Reasoning string `json:"reasoning,omitempty"`
}

// CloneMessages returns a deep copy of msgs. Adapters mutate only the copy.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Settings is the per-provider configuration an adapter is constructed with.
// It is owned by the configuration layer and read-only to adapters.
type Settings struct {
	// Name is the instance name used in logs and metrics.
	Name string

	// Type selects the adapter variant (openai, anthropic, gemini, qianfan).
	Type string

	// Endpoint is the chat-completion URL.
	Endpoint string

	// APIKey is the static credential for key-authenticated providers.
	APIKey string

	// Model is the provider-side model identifier.
	Model string

	// MaxTokens bounds the generated output. Zero leaves the provider default.
	MaxTokens int

	// Stream requests incremental delivery through the background runner.
	Stream bool

	// TokenURL, ClientID and ClientSecret configure the client-credentials
	// exchange for providers that authenticate with short-lived tokens.
	TokenURL     string
	ClientID     string
	ClientSecret string

	// Extra holds additional provider parameters (temperature, reasoning
	// mode, tool declarations). Adapters pass through only the keys they
	// allow-list for their wire format.
	Extra map[string]any

	// ConnectTimeout and Timeout override the dispatch defaults when set.
	ConnectTimeout time.Duration
	Timeout        time.Duration

	// MaxRetries and RetryDelay bound the executor's retry of
	// connection-level failures.
	MaxRetries int
	RetryDelay time.Duration
}

// Validate checks the fields every adapter variant requires. Credential
// requirements differ per variant and are checked by the adapter itself.
func (s Settings) Validate() error {
	if s.Name == "" {
		return &ConfigError{Provider: s.Name, Field: "name", Message: "must not be empty"}
	}
	if s.Endpoint == "" {
		return &ConfigError{Provider: s.Name, Field: "endpoint", Message: "must not be empty"}
	}
	if s.Model == "" {
		return &ConfigError{Provider: s.Name, Field: "model", Message: "must not be empty"}
	}
	return nil
}

// ExtraString returns a string-valued extra parameter, or "" when absent.
func (s Settings) ExtraString(key string) string {
	if v, ok := s.Extra[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}
