package anthropic

import (
	"encoding/json"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// extractDelta decodes one SSE data payload. Text arrives in
// content_block_delta events; message_stop ends the stream. Other event
// types (message_start, ping, content_block_start) carry no text.
func (c *Client) extractDelta(data []byte) (string, bool, error) {
	var ev streamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false, &providers.ParseError{
			Provider: c.Name(),
			Raw:      providers.Excerpt(data),
			Cause:    err,
		}
	}
	switch ev.Type {
	case "content_block_delta":
		if ev.Delta.Type == "text_delta" {
			return ev.Delta.Text, false, nil
		}
		return "", false, nil
	case "message_stop":
		return "", true, nil
	case "error":
		msg := "stream error"
		typ := ""
		if ev.Error != nil {
			msg = ev.Error.Message
			typ = ev.Error.Type
		}
		return "", false, &providers.RemoteError{Provider: c.Name(), Type: typ, Message: msg}
	default:
		return "", false, nil
	}
}
