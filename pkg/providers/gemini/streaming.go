package gemini

import (
	"encoding/json"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

// extractDelta decodes one SSE data payload. streamGenerateContent emits a
// generateContent response fragment per event; the stream ends at EOF, there
// is no terminator sentinel.
func (c *Client) extractDelta(data []byte) (string, bool, error) {
	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", false, &providers.ParseError{
			Provider: c.Name(),
			Raw:      providers.Excerpt(data),
			Cause:    err,
		}
	}
	if err := c.remoteError(resp.errorBody); err != nil {
		return "", false, err
	}
	if len(resp.Candidates) == 0 {
		return "", false, nil
	}
	var delta string
	for _, part := range resp.Candidates[0].Content.Parts {
		delta += part.Text
	}
	return delta, false, nil
}
