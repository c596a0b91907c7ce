package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

// defaultMaxTokens is applied when the settings carry no limit; the messages
// API rejects requests without one.
const defaultMaxTokens = 4096

var allowedExtras = map[string]bool{
	"temperature":    true,
	"top_p":          true,
	"top_k":          true,
	"stop_sequences": true,
	"thinking":       true,
	"tools":          true,
	"tool_choice":    true,
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildPayload serializes the conversation for the messages API. All system
// messages are concatenated into the top-level system field; the remaining
// messages must be user or assistant roled.
func buildPayload(messages []providers.Message, settings providers.Settings, stream bool) ([]byte, error) {
	if len(messages) == 0 {
		return nil, &providers.ValidationError{Field: "messages", Message: "must not be empty"}
	}

	var system []string
	wire := make([]wireMessage, 0, len(messages))
	for _, m := range providers.CloneMessages(messages) {
		if m.Role == providers.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		role := string(m.Role)
		if m.Role != providers.RoleUser && m.Role != providers.RoleAssistant {
			role = string(providers.RoleUser)
		}
		wire = append(wire, wireMessage{Role: role, Content: m.Content})
	}
	if len(wire) == 0 {
		return nil, &providers.ValidationError{
			Field:   "messages",
			Message: "must contain at least one non-system message",
		}
	}

	maxTokens := settings.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload := map[string]any{
		"model":      settings.Model,
		"messages":   wire,
		"max_tokens": maxTokens,
	}
	if len(system) > 0 {
		payload["system"] = strings.Join(system, "\n\n")
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
