package qianfan

import (
	"encoding/json"
	"strings"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

var allowedExtras = map[string]bool{
	"temperature":     true,
	"top_p":           true,
	"penalty_score":   true,
	"stop":            true,
	"disable_search":  true,
	"enable_citation": true,
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildPayload serializes the conversation. The endpoint accepts only
// user/assistant roles in the message array; system content moves to the
// top-level system field.
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
		role := string(providers.RoleUser)
		if m.Role == providers.RoleAssistant {
			role = string(providers.RoleAssistant)
		}
		wire = append(wire, wireMessage{Role: role, Content: m.Content})
	}
	if len(wire) == 0 {
		return nil, &providers.ValidationError{
			Field:   "messages",
			Message: "must contain at least one non-system message",
		}
	}

	payload := map[string]any{"messages": wire}
	if len(system) > 0 {
		payload["system"] = strings.Join(system, "\n\n")
	}
	if settings.MaxTokens > 0 {
		payload["max_output_tokens"] = settings.MaxTokens
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
