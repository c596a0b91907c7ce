package anthropic

import (
	"context"
	"encoding/json"

	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// apiVersion is the versioning header value the messages API requires.
const apiVersion = "2023-06-01"

// Client is the adapter for the Anthropic messages API. System messages are
// concatenated into the top-level system field and the remainder re-roled to
// a strict user/assistant alternation on the wire.
type Client struct {
	*providers.Base
}

// New creates an Anthropic adapter. The API key is required.
func New(settings providers.Settings, deps providers.Deps) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: settings.Name,
			Field:    "api_key",
			Message:  "must not be empty",
		}
	}
	return &Client{Base: providers.NewBase(settings, deps)}, nil
}

// Type returns the adapter variant name.
func (c *Client) Type() string { return "anthropic" }

// Query sends the conversation and returns the normalized answer text.
func (c *Client) Query(ctx context.Context, messages []providers.Message) (string, error) {
	body, err := buildPayload(messages, c.Settings(), false)
	if err != nil {
		return "", err
	}
	out := c.Do(ctx, c.request(body, false))
	return providers.Resolve(c.Name(), out, c.parseResponse, c.decodeHTTPError)
}

// QueryStream dispatches the conversation in the background, delivering
// content deltas through onChunk as they arrive.
func (c *Client) QueryStream(ctx context.Context, messages []providers.Message, onChunk func(delta string)) (*providers.QueryHandle, error) {
	streaming := c.CanStream()
	body, err := buildPayload(messages, c.Settings(), streaming)
	if err != nil {
		return nil, err
	}
	spec := providers.StreamSpec{
		Extract:    c.extractDelta,
		ParseFull:  c.parseResponse,
		DecodeHTTP: c.decodeHTTPError,
	}
	return c.StreamRequest(ctx, c.request(body, streaming), spec, onChunk), nil
}

func (c *Client) request(body []byte, streaming bool) transport.Request {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         c.Settings().APIKey,
		"anthropic-version": apiVersion,
	}
	if streaming {
		headers["Accept"] = "text/event-stream"
	}
	return transport.Request{
		URL:     c.Settings().Endpoint,
		Headers: headers,
		Body:    body,
	}
}

type errorBody struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type messageResponse struct {
	errorBody
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	// Pre-messages completion endpoints answered with a completion field.
	Completion string `json:"completion"`
}

// parseResponse decodes a 200 body: the error object first, then the first
// text content block, then the legacy completion shape.
func (c *Client) parseResponse(body []byte) (string, error) {
	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{
			Provider: c.Name(),
			Raw:      providers.Excerpt(body),
			Cause:    err,
		}
	}
	if err := c.remoteError(resp.errorBody); err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	if resp.Completion != "" {
		return resp.Completion, nil
	}
	return "", &providers.ParseError{Provider: c.Name(), Raw: providers.Excerpt(body)}
}

func (c *Client) decodeHTTPError(status int, body []byte) error {
	var resp errorBody
	if json.Unmarshal(body, &resp) == nil {
		if err := c.remoteError(resp); err != nil {
			return err
		}
	}
	return &providers.HTTPError{Provider: c.Name(), StatusCode: status, Body: body}
}

func (c *Client) remoteError(resp errorBody) error {
	if resp.Error == nil {
		return nil
	}
	return &providers.RemoteError{
		Provider: c.Name(),
		Type:     resp.Error.Type,
		Message:  resp.Error.Message,
	}
}
