package openai

import (
	"encoding/json"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

// streamTerminator ends the event stream.
const streamTerminator = "[DONE]"

type streamEvent struct {
	errorBody
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// extractDelta decodes one SSE data payload into a content delta.
func (c *Client) extractDelta(data []byte) (string, bool, error) {
	if string(data) == streamTerminator {
		return "", true, nil
	}
	var ev streamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false, &providers.ParseError{
			Provider: c.Name(),
			Raw:      providers.Excerpt(data),
			Cause:    err,
		}
	}
	if err := c.remoteError(ev.errorBody); err != nil {
		return "", false, err
	}
	if len(ev.Choices) == 0 {
		// Keep-alive or usage-only events carry no choices.
		return "", false, nil
	}
	return ev.Choices[0].Delta.Content, false, nil
}
