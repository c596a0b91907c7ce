package qianfan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

func newTestClient(t *testing.T, endpoint, tokenURL string) *Client {
	t.Helper()
	settings := providers.Settings{
		Name:         "qianfan",
		Type:         "qianfan",
		Endpoint:     endpoint,
		Model:        "ernie",
		TokenURL:     tokenURL,
		ClientID:     "id",
		ClientSecret: "secret",
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

func TestQueryExchangesTokenOnce(t *testing.T) {
	var exchanges atomic.Int32
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("token exchange Content-Type = %q", ct)
		}
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"result":"4"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL+"/chat", server.URL+"/token")
	msgs := []providers.Message{
		{Role: providers.RoleSystem, Content: "Be terse"},
		{Role: providers.RoleUser, Content: "2+2?"},
	}

	for i := 0; i < 2; i++ {
		text, err := client.Query(context.Background(), msgs)
		if err != nil {
			t.Fatalf("Query %d: %v", i, err)
		}
		if text != "4" {
			t.Errorf("text = %q, want %q", text, "4")
		}
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if got := exchanges.Load(); got != 1 {
		t.Errorf("token exchanged %d times across two queries, want 1", got)
	}
}

func TestQueryTokenExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL+"/chat", server.URL+"/token")
	_, err := client.Query(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "q"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "obtaining access token") {
		t.Errorf("err = %v, want wrapped token exchange failure", err)
	}
}

func TestQueryRemoteError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error_code":18,"error_msg":"Open api qps request limit reached"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL+"/chat", server.URL+"/token")
	_, err := client.Query(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "q"}})

	var remoteErr *providers.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if remoteErr.Code != "18" {
		t.Errorf("code = %q", remoteErr.Code)
	}
}

func TestQueryStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"result\":\"Hel\",\"is_end\":false}\n\n"))
		w.Write([]byte("data: {\"result\":\"lo\",\"is_end\":true}\n\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL+"/chat", server.URL+"/token")
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
		t.Errorf("chunks = %v", chunks)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	base := providers.Settings{Name: "q", Endpoint: "https://x", Model: "m"}

	for _, tc := range []struct {
		name  string
		edit  func(*providers.Settings)
		field string
	}{
		{"no token url", func(s *providers.Settings) { s.ClientID = "i"; s.ClientSecret = "s" }, "token_url"},
		{"no client id", func(s *providers.Settings) { s.TokenURL = "https://t"; s.ClientSecret = "s" }, "client_id"},
		{"no client secret", func(s *providers.Settings) { s.TokenURL = "https://t"; s.ClientID = "i" }, "client_secret"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := base
			tc.edit(&s)
			_, err := New(s, providers.Deps{})
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tc.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tc.field)
			}
		})
	}
}
