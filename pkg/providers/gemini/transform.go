package gemini

import (
	"encoding/json"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

// generationConfigKeys are the extras forwarded inside generationConfig.
var generationConfigKeys = map[string]bool{
	"temperature":      true,
	"topP":             true,
	"topK":             true,
	"candidateCount":   true,
	"stopSequences":    true,
	"thinkingConfig":   true,
	"responseMimeType": true,
}

// topLevelKeys are the extras forwarded at the payload root.
var topLevelKeys = map[string]bool{
	"safetySettings": true,
	"tools":          true,
	"toolConfig":     true,
}

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role"`
	Parts []wirePart `json:"parts"`
}

// buildPayload serializes the conversation for generateContent. The first
// system message becomes system_instruction; later messages map to the
// user/model role pair the API understands.
func buildPayload(messages []providers.Message, settings providers.Settings) ([]byte, error) {
	if len(messages) == 0 {
		return nil, &providers.ValidationError{Field: "messages", Message: "must not be empty"}
	}

	var instruction string
	contents := make([]wireContent, 0, len(messages))
	for _, m := range providers.CloneMessages(messages) {
		if m.Role == providers.RoleSystem && instruction == "" {
			instruction = m.Content
			continue
		}
		role := "user"
		if m.Role == providers.RoleAssistant {
			role = "model"
		}
		contents = append(contents, wireContent{
			Role:  role,
			Parts: []wirePart{{Text: m.Content}},
		})
	}
	if len(contents) == 0 {
		return nil, &providers.ValidationError{
			Field:   "messages",
			Message: "must contain at least one conversational message",
		}
	}

	generationConfig := map[string]any{}
	if settings.MaxTokens > 0 {
		generationConfig["maxOutputTokens"] = settings.MaxTokens
	}

	payload := map[string]any{"contents": contents}
	if instruction != "" {
		payload["system_instruction"] = map[string]any{
			"parts": []wirePart{{Text: instruction}},
		}
	}
	for key, value := range settings.Extra {
		switch {
		case generationConfigKeys[key]:
			generationConfig[key] = value
		case topLevelKeys[key]:
			payload[key] = value
		}
	}
	if len(generationConfig) > 0 {
		payload["generationConfig"] = generationConfig
	}

	return json.Marshal(payload)
}
