package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	settings := providers.Settings{
		Name:     "openai",
		Type:     "openai",
		Endpoint: endpoint,
		APIKey:   "sk-test",
		Model:    "gpt-4o",
	}
	tr := transport.NewNative(transport.NativeOptions{}, nil)
	client, err := New(settings, providers.Deps{
		Executor: dispatch.NewExecutor(tr, dispatch.Options{}),
		Runner:   dispatch.NewRunner(nil),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestQueryGolden(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"choices":[{"message":{"content":"4"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Query(context.Background(), []providers.Message{
		{Role: providers.RoleSystem, Content: "Be terse"},
		{Role: providers.RoleUser, Content: "2+2?"},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if text != "4" {
		t.Errorf("text = %q, want %q", text, "4")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	msgs, _ := gotPayload["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("wire messages = %v, want both messages passed through", gotPayload["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "Be terse" {
		t.Errorf("first wire message = %v", first)
	}
}

func TestQueryLegacyTextShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"text":"legacy answer"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Query(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "q"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if text != "legacy answer" {
		t.Errorf("text = %q", text)
	}
}

func TestQueryRateLimitedNoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Query(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "q"}})

	var remoteErr *providers.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if remoteErr.Message != "rate limited" {
		t.Errorf("message = %q", remoteErr.Message)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1 (HTTP errors are never retried)", got)
	}
}

func TestQueryEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Query(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "q"}})

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestQueryMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Query(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "q"}})

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if parseErr.Raw == "" {
		t.Error("parse error should carry a raw excerpt for diagnosis")
	}
}

func TestQueryStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	var chunks []string
	handle, err := client.QueryStream(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		func(delta string) { chunks = append(chunks, delta) })
	if err != nil {
		t.Fatalf("QueryStream: %v", err)
	}

	text, err := handle.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if text != "Hello" {
		t.Errorf("text = %q, want %q", text, "Hello")
	}
	if len(chunks) != 2 {
		t.Errorf("chunks = %v, want 2 deltas", chunks)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(providers.Settings{
		Name: "openai", Endpoint: "https://example.invalid", Model: "m",
	}, providers.Deps{})
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("field = %q", cfgErr.Field)
	}
}

func TestExtractDelta(t *testing.T) {
	client := newTestClient(t, "https://example.invalid")

	if _, done, _ := client.extractDelta([]byte("[DONE]")); !done {
		t.Error("terminator not recognized")
	}
	delta, done, err := client.extractDelta([]byte(`{"choices":[{"delta":{"content":"x"}}]}`))
	if err != nil || done || delta != "x" {
		t.Errorf("delta=%q done=%v err=%v", delta, done, err)
	}
	// Usage-only events carry no choices and no content.
	delta, done, err = client.extractDelta([]byte(`{"usage":{"total_tokens":3}}`))
	if err != nil || done || delta != "" {
		t.Errorf("usage event: delta=%q done=%v err=%v", delta, done, err)
	}
}
