package providerfactory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

func testDeps() providers.Deps {
	tr := transport.NewNative(transport.NativeOptions{}, nil)
	return providers.Deps{
		Executor: dispatch.NewExecutor(tr, dispatch.Options{}),
		Runner:   dispatch.NewRunner(nil),
	}
}

func TestNewByType(t *testing.T) {
	for _, tc := range []struct {
		settings providers.Settings
		wantType string
	}{
		{providers.Settings{Name: "a", Type: "openai", Endpoint: "https://x", Model: "m", APIKey: "k"}, "openai"},
		{providers.Settings{Name: "b", Type: "generic", Endpoint: "https://x", Model: "m", APIKey: "k"}, "openai"},
		{providers.Settings{Name: "c", Type: "anthropic", Endpoint: "https://x", Model: "m", APIKey: "k"}, "anthropic"},
		{providers.Settings{Name: "d", Type: "gemini", Endpoint: "https://x", Model: "m", APIKey: "k"}, "gemini"},
		{providers.Settings{Name: "e", Type: "qianfan", Endpoint: "https://x", Model: "m",
			TokenURL: "https://t", ClientID: "i", ClientSecret: "s"}, "qianfan"},
	} {
		t.Run(tc.settings.Type, func(t *testing.T) {
			adapter, err := New(tc.settings, testDeps())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if adapter.Type() != tc.wantType {
				t.Errorf("Type() = %q, want %q", adapter.Type(), tc.wantType)
			}
		})
	}
}

func TestNewUnsupportedType(t *testing.T) {
	_, err := New(providers.Settings{Name: "x", Type: "carrier-pigeon", Endpoint: "https://x", Model: "m"}, testDeps())
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
}

func TestManagerRegistryAndAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer server.Close()

	m := NewManager(testDeps())
	defer m.Stop()

	err := m.Build([]providers.Settings{
		{Name: "primary", Type: "openai", Endpoint: server.URL, Model: "m", APIKey: "k"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := m.Get("primary"); err != nil {
		t.Errorf("Get(primary): %v", err)
	}
	if _, err := m.Get("missing"); err == nil {
		t.Error("Get(missing) should fail")
	}
	if names := m.Names(); len(names) != 1 || names[0] != "primary" {
		t.Errorf("Names() = %v", names)
	}

	text, err := m.Ask(context.Background(), "primary",
		[]providers.Message{{Role: providers.RoleUser, Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q", text)
	}
}

func TestManagerDuplicateName(t *testing.T) {
	m := NewManager(testDeps())
	defer m.Stop()

	settings := providers.Settings{Name: "dup", Type: "openai", Endpoint: "https://x", Model: "m", APIKey: "k"}
	if err := m.Build([]providers.Settings{settings}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := m.Build([]providers.Settings{settings}); err == nil {
		t.Error("duplicate name accepted")
	}
}

func TestManagerSweepUpdatesHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	m := NewManager(testDeps())
	defer m.Stop()

	if err := m.Build([]providers.Settings{
		{Name: "p", Type: "openai", Endpoint: server.URL, Model: "m", APIKey: "k"},
	}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	m.sweep()

	adapter, _ := m.Get("p")
	health := adapter.(interface{ Health() providers.Health }).Health()
	if health.LastCheck.IsZero() {
		t.Error("sweep did not record a health verdict")
	}
	if !health.Healthy {
		t.Error("a 401 response still proves reachability")
	}
}
