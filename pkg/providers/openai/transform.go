package openai

import (
	"encoding/json"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

// allowedExtras are the request parameters forwarded from Settings.Extra.
// Everything else is dropped rather than risking a provider rejection.
var allowedExtras = map[string]bool{
	"temperature":       true,
	"top_p":             true,
	"presence_penalty":  true,
	"frequency_penalty": true,
	"stop":              true,
	"seed":              true,
	"logprobs":          true,
	"reasoning_effort":  true,
	"tools":             true,
	"tool_choice":       true,
	"response_format":   true,
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// buildPayload serializes the canonical conversation into the chat
// completion body. The caller's messages are cloned; internal annotations
// never reach the wire.
func buildPayload(messages []providers.Message, settings providers.Settings, stream bool) ([]byte, error) {
	if len(messages) == 0 {
		return nil, &providers.ValidationError{Field: "messages", Message: "must not be empty"}
	}

	wire := make([]wireMessage, 0, len(messages))
	for _, m := range providers.CloneMessages(messages) {
		wire = append(wire, wireMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}

	payload := map[string]any{
		"model":    settings.Model,
		"messages": wire,
	}
	if settings.MaxTokens > 0 {
		payload["max_tokens"] = settings.MaxTokens
	}
	if stream {
		payload["stream"] = true
	}
	for key, value := range settings.Extra {
		if allowedExtras[key] {
			payload[key] = value
		}
	}

	return json.Marshal(payload)
}
