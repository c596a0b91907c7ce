package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// DefaultTokenLifetime is applied when an exchange response carries no
// expiry. Treating such a token as eternally valid would mask revocation;
// a conservative lifetime forces a refresh instead.
const DefaultTokenLifetime = 30 * time.Minute

// expirySkew is subtracted from the reported expiry so a token is refreshed
// slightly before the provider would start rejecting it.
const expirySkew = 30 * time.Second

// Config describes one provider's client-credentials exchange.
type Config struct {
	// TokenURL is the exchange endpoint.
	TokenURL string

	// ClientID and ClientSecret are the exchange credentials.
	ClientID     string
	ClientSecret string

	// OnRefresh, when set, is invoked after each successful exchange.
	// Used for refresh accounting.
	OnRefresh func()
}

// TokenCache performs an OAuth-style client-credentials exchange, caches the
// resulting bearer token with its expiry, and refreshes it transparently
// when expired or absent. At most one exchange is in flight per cache;
// concurrent callers share its result.
//
// Tokens live only in process memory and are never persisted.
type TokenCache struct {
	cfg    Config
	exec   *dispatch.Executor
	logger *slog.Logger

	group singleflight.Group

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenCache creates a token cache for one provider instance.
func NewTokenCache(cfg Config, exec *dispatch.Executor, logger *slog.Logger) *TokenCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenCache{cfg: cfg, exec: exec, logger: logger}
}

// Token returns a valid bearer token, performing or awaiting an exchange if
// the cached one is absent or expired. An expired token is never returned.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	// Concurrent callers arriving while an exchange is in flight await and
	// share its result instead of triggering a second exchange.
	v, err, _ := c.group.Do("exchange", func() (interface{}, error) {
		// Re-check under the flight: a racing caller may have refreshed
		// between our fast-path check and joining the group.
		c.mu.Lock()
		if c.token != "" && time.Now().Before(c.expiresAt) {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		return c.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate discards the cached token, forcing an exchange on next use.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

// tokenResponse is the exchange response. Providers disagree on how expiry
// is expressed; all known variants are accepted and normalized.
type tokenResponse struct {
	AccessToken string `json:"access_token"`

	// ExpiresIn is a lifetime in seconds from now.
	ExpiresIn json.Number `json:"expires_in"`

	// ExpiresAt is an absolute timestamp, epoch seconds or epoch
	// milliseconds depending on the provider.
	ExpiresAt json.Number `json:"expires_at"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// exchange performs the client-credentials POST and installs the result.
// On failure the cache is reset to its empty state and the cause is
// propagated with context.
func (c *TokenCache) exchange(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	out := c.exec.Execute(ctx, transport.Request{
		URL:     c.cfg.TokenURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
	}, dispatch.DefaultTimeouts())

	token, expiresAt, err := parseExchange(out)
	if err != nil {
		c.Invalidate()
		return "", fmt.Errorf("obtaining access token: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.expiresAt = expiresAt
	c.mu.Unlock()

	c.logger.Debug("access token refreshed",
		"token_url", transport.RedactURL(c.cfg.TokenURL),
		"expires_at", expiresAt,
	)
	if c.cfg.OnRefresh != nil {
		c.cfg.OnRefresh()
	}
	return token, nil
}

func parseExchange(out transport.Outcome) (string, time.Time, error) {
	switch out.Kind {
	case transport.KindSuccess:
		// Fall through to body parsing.
	case transport.KindHTTPError:
		return "", time.Time{}, fmt.Errorf("token endpoint returned status %d: %s", out.StatusCode, excerpt(out.Body))
	case transport.KindConnectionError:
		return "", time.Time{}, fmt.Errorf("token endpoint unreachable: %s", out.Detail)
	case transport.KindCancelled:
		return "", time.Time{}, context.Canceled
	}

	var resp tokenResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", time.Time{}, fmt.Errorf("unparseable token response: %w", err)
	}
	if resp.Error != "" {
		return "", time.Time{}, fmt.Errorf("token endpoint rejected credentials: %s %s", resp.Error, resp.ErrorDescription)
	}
	if resp.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response missing access_token: %s", excerpt(out.Body))
	}

	return resp.AccessToken, normalizeExpiry(resp.ExpiresIn, resp.ExpiresAt, time.Now()), nil
}

// normalizeExpiry converts the provider's expiry representation to a single
// internal time.Time. expires_at may be epoch seconds or epoch milliseconds;
// expires_in is a relative lifetime in seconds. A response with neither gets
// the conservative default lifetime.
func normalizeExpiry(expiresIn, expiresAt json.Number, now time.Time) time.Time {
	if v, err := expiresAt.Int64(); err == nil && v > 0 {
		// Epoch milliseconds pass 1e12 around September 2001; epoch
		// seconds will not until the year 33658.
		if v > 1_000_000_000_000 {
			return time.UnixMilli(v).Add(-expirySkew)
		}
		return time.Unix(v, 0).Add(-expirySkew)
	}
	if v, err := expiresIn.Int64(); err == nil && v > 0 {
		return now.Add(time.Duration(v) * time.Second).Add(-expirySkew)
	}
	return now.Add(DefaultTokenLifetime)
}

func excerpt(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
