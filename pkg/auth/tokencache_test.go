package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

func newCache(t *testing.T, serverURL string) *TokenCache {
	t.Helper()
	exec := dispatch.NewExecutor(transport.NewNative(transport.NativeOptions{}, nil), dispatch.Options{})
	return NewTokenCache(Config{
		TokenURL:     serverURL,
		ClientID:     "client-1",
		ClientSecret: "shh",
	}, exec, nil)
}

func TestTokenCache_SingleFlight(t *testing.T) {
	exchanges := atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", ct)
		}
		time.Sleep(50 * time.Millisecond) // hold callers in flight
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
	}))
	defer server.Close()

	c := newCache(t, server.URL)

	const callers = 8
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := c.Token(t.Context())
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	if got := exchanges.Load(); got != 1 {
		t.Errorf("expected exactly 1 exchange for concurrent callers, got %d", got)
	}
	for i, tok := range tokens {
		if tok != "tok-1" {
			t.Errorf("caller %d got token %q, want tok-1", i, tok)
		}
	}
}

func TestTokenCache_ExpiredTokenNeverReturned(t *testing.T) {
	exchanges := atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := exchanges.Add(1)
		// First token is already expired on arrival.
		if n == 1 {
			fmt.Fprintf(w, `{"access_token":"stale","expires_at":%d}`, time.Now().Add(-time.Hour).Unix())
			return
		}
		fmt.Fprint(w, `{"access_token":"fresh","expires_in":3600}`)
	}))
	defer server.Close()

	c := newCache(t, server.URL)

	if _, err := c.Token(t.Context()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	tok, err := c.Token(t.Context())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if tok != "fresh" {
		t.Errorf("expired token was returned: %q", tok)
	}
	if got := exchanges.Load(); got != 2 {
		t.Errorf("expected a fresh exchange for the expired token, got %d exchanges", got)
	}
}

func TestTokenCache_ExchangeFailureWrapsCause(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer server.Close()

	c := newCache(t, server.URL)
	_, err := c.Token(t.Context())
	if err == nil {
		t.Fatal("expected error for rejected credentials")
	}
	if !strings.Contains(err.Error(), "obtaining access token") {
		t.Errorf("error lost its context wrapper: %v", err)
	}

	// The cache must be back in its empty state, triggering a retryable
	// exchange rather than serving garbage.
	c.mu.Lock()
	empty := c.token == ""
	c.mu.Unlock()
	if !empty {
		t.Error("failed exchange left a token behind")
	}
}

func TestNormalizeExpiry(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresIn string
		expiresAt string
		want      time.Time
	}{
		{
			name:      "relative seconds",
			expiresIn: "3600",
			want:      now.Add(time.Hour).Add(-expirySkew),
		},
		{
			name:      "epoch seconds",
			expiresAt: "1793448000", // 2026-10-31T12:00:00Z
			want:      time.Unix(1793448000, 0).Add(-expirySkew),
		},
		{
			name:      "epoch milliseconds",
			expiresAt: "1793448000000",
			want:      time.UnixMilli(1793448000000).Add(-expirySkew),
		},
		{
			name: "missing expiry defaults conservatively",
			want: now.Add(DefaultTokenLifetime),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeExpiry(json.Number(tt.expiresIn), json.Number(tt.expiresAt), now)
			if !got.Equal(tt.want) {
				t.Errorf("normalizeExpiry() = %v, want %v", got, tt.want)
			}
		})
	}
}
