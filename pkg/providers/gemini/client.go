package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// Client is the adapter for the Gemini generateContent API. The API key
// rides in the URL query, the first system message is folded into
// system_instruction, and the conversation uses user/model roles.
type Client struct {
	*providers.Base
}

// New creates a Gemini adapter. The API key is required.
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
func (c *Client) Type() string { return "gemini" }

// Query sends the conversation and returns the normalized answer text.
func (c *Client) Query(ctx context.Context, messages []providers.Message) (string, error) {
	body, err := buildPayload(messages, c.Settings())
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
	body, err := buildPayload(messages, c.Settings())
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
	headers := map[string]string{"Content-Type": "application/json"}
	if streaming {
		headers["Accept"] = "text/event-stream"
	}
	return transport.Request{
		URL:     c.url(streaming),
		Headers: headers,
		Body:    body,
	}
}

// url assembles the model action URL. The key rides in the query, so the
// URL must only ever be logged through transport.RedactURL.
func (c *Client) url(streaming bool) string {
	settings := c.Settings()
	base := strings.TrimRight(settings.Endpoint, "/")

	action := "generateContent"
	query := url.Values{"key": {settings.APIKey}}
	if streaming {
		action = "streamGenerateContent"
		query.Set("alt", "sse")
	}

	// The endpoint may already name the model action (legacy configs).
	if strings.Contains(base, ":"+action) || strings.Contains(base, ":generateContent") {
		return base + "?" + query.Encode()
	}
	return fmt.Sprintf("%s/models/%s:%s?%s", base, settings.Model, action, query.Encode())
}

type errorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type generateResponse struct {
	errorBody
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		// Early API revisions answered with a flat output field.
		Output string `json:"output"`
	} `json:"candidates"`
}

// parseResponse decodes a 200 body: the error object first, then the first
// candidate's first text part, then the legacy output field.
func (c *Client) parseResponse(body []byte) (string, error) {
	var resp generateResponse
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
	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
		if candidate.Output != "" {
			return candidate.Output, nil
		}
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
	code := ""
	if resp.Error.Code != 0 {
		code = strconv.Itoa(resp.Error.Code)
	}
	return &providers.RemoteError{
		Provider: c.Name(),
		Code:     code,
		Type:     resp.Error.Status,
		Message:  resp.Error.Message,
	}
}
