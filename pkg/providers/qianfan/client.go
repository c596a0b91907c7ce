package qianfan

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/omer-faruq/assistant-core/pkg/auth"
	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// Client is the adapter for Qianfan-style providers that authenticate with a
// short-lived bearer token obtained through a client-credentials exchange.
// System messages fold into the top-level system field; the message array is
// strictly user/assistant.
type Client struct {
	*providers.Base
	tokens *auth.TokenCache
}

// New creates a Qianfan adapter. The token endpoint and client credentials
// are required; there is no static API key.
func New(settings providers.Settings, deps providers.Deps) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	switch {
	case settings.TokenURL == "":
		return nil, &providers.ConfigError{Provider: settings.Name, Field: "token_url", Message: "must not be empty"}
	case settings.ClientID == "":
		return nil, &providers.ConfigError{Provider: settings.Name, Field: "client_id", Message: "must not be empty"}
	case settings.ClientSecret == "":
		return nil, &providers.ConfigError{Provider: settings.Name, Field: "client_secret", Message: "must not be empty"}
	}

	base := providers.NewBase(settings, deps)
	cfg := auth.Config{
		TokenURL:     settings.TokenURL,
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
	}
	if deps.Metrics != nil {
		name := settings.Name
		m := deps.Metrics
		cfg.OnRefresh = func() { m.RecordTokenRefresh(name) }
	}
	return &Client{
		Base:   base,
		tokens: auth.NewTokenCache(cfg, deps.Executor, base.Logger()),
	}, nil
}

// Type returns the adapter variant name.
func (c *Client) Type() string { return "qianfan" }

// Query sends the conversation and returns the normalized answer text.
func (c *Client) Query(ctx context.Context, messages []providers.Message) (string, error) {
	req, err := c.buildRequest(ctx, messages, false)
	if err != nil {
		return "", err
	}
	out := c.Do(ctx, req)
	return providers.Resolve(c.Name(), out, c.parseResponse, c.decodeHTTPError)
}

// QueryStream dispatches the conversation in the background, delivering
// content deltas through onChunk as they arrive.
func (c *Client) QueryStream(ctx context.Context, messages []providers.Message, onChunk func(delta string)) (*providers.QueryHandle, error) {
	streaming := c.CanStream()
	req, err := c.buildRequest(ctx, messages, streaming)
	if err != nil {
		return nil, err
	}
	spec := providers.StreamSpec{
		Extract:    c.extractDelta,
		ParseFull:  c.parseResponse,
		DecodeHTTP: c.decodeHTTPError,
	}
	return c.StreamRequest(ctx, req, spec, onChunk), nil
}

// buildRequest obtains a bearer token, refreshing transparently on expiry,
// and assembles the wire request.
func (c *Client) buildRequest(ctx context.Context, messages []providers.Message, streaming bool) (transport.Request, error) {
	body, err := buildPayload(messages, c.Settings(), streaming)
	if err != nil {
		return transport.Request{}, err
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return transport.Request{}, err
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + token,
	}
	if streaming {
		headers["Accept"] = "text/event-stream"
	}
	return transport.Request{
		URL:     c.Settings().Endpoint,
		Headers: headers,
		Body:    body,
	}, nil
}

type chatResponse struct {
	Result string `json:"result"`
	IsEnd  bool   `json:"is_end"`

	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// parseResponse decodes a 200 body: the error_code/error_msg pair first,
// then the result field.
func (c *Client) parseResponse(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{
			Provider: c.Name(),
			Raw:      providers.Excerpt(body),
			Cause:    err,
		}
	}
	if err := c.remoteError(resp); err != nil {
		return "", err
	}
	if resp.Result != "" {
		return resp.Result, nil
	}
	return "", &providers.ParseError{Provider: c.Name(), Raw: providers.Excerpt(body)}
}

func (c *Client) decodeHTTPError(status int, body []byte) error {
	var resp chatResponse
	if json.Unmarshal(body, &resp) == nil {
		if err := c.remoteError(resp); err != nil {
			return err
		}
	}
	return &providers.HTTPError{Provider: c.Name(), StatusCode: status, Body: body}
}

func (c *Client) remoteError(resp chatResponse) error {
	if resp.ErrorCode == 0 && resp.ErrorMsg == "" {
		return nil
	}
	code := ""
	if resp.ErrorCode != 0 {
		code = strconv.Itoa(resp.ErrorCode)
	}
	return &providers.RemoteError{
		Provider: c.Name(),
		Code:     code,
		Message:  resp.ErrorMsg,
	}
}
