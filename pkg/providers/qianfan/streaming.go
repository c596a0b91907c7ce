package qianfan

import (
	"encoding/json"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

// extractDelta decodes one SSE data payload. Each event repeats the chat
// response shape with a partial result; is_end marks the final event.
func (c *Client) extractDelta(data []byte) (string, bool, error) {
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", false, &providers.ParseError{
			Provider: c.Name(),
			Raw:      providers.Excerpt(data),
			Cause:    err,
		}
	}
	if err := c.remoteError(resp); err != nil {
		return "", false, err
	}
	return resp.Result, resp.IsEnd, nil
}
