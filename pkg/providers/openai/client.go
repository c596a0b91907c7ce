package openai

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// Client is the adapter for OpenAI-compatible chat-completion endpoints.
// Messages pass through in the canonical shape; only allow-listed extra
// parameters are forwarded.
type Client struct {
	*providers.Base
}

// New creates an OpenAI adapter. The API key is required.
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
func (c *Client) Type() string { return "openai" }

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
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + c.Settings().APIKey,
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
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

type chatResponse struct {
	errorBody
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		// Older completion endpoints put the text at the choice level.
		Text string `json:"text"`
	} `json:"choices"`
}

// parseResponse decodes a 200 body: the explicit error object first, then
// the chat shape, then the legacy completion shape.
func (c *Client) parseResponse(body []byte) (string, error) {
	var resp chatResponse
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
	if len(resp.Choices) > 0 {
		if content := resp.Choices[0].Message.Content; content != "" {
			return content, nil
		}
		if resp.Choices[0].Text != "" {
			return resp.Choices[0].Text, nil
		}
	}
	return "", &providers.ParseError{Provider: c.Name(), Raw: providers.Excerpt(body)}
}

// decodeHTTPError interprets a non-2xx body, preferring the provider's
// error object over the raw status.
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
	code := ""
	if resp.Error.Code != nil {
		code = stringify(resp.Error.Code)
	}
	return &providers.RemoteError{
		Provider: c.Name(),
		Code:     code,
		Type:     resp.Error.Type,
		Message:  resp.Error.Message,
	}
}

// stringify renders the error code, which the API serves as either a string
// or a number.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
