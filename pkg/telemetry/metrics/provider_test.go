package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequestAndError(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewProviderMetrics(Options{}, registry)

	pm.RecordRequest("openai", "gpt-4o")
	pm.RecordRequest("openai", "gpt-4o")
	pm.RecordError("openai", "http_error")

	if got := testutil.ToFloat64(pm.requests.WithLabelValues("openai", "gpt-4o")); got != 2 {
		t.Errorf("requests counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pm.errors.WithLabelValues("openai", "http_error")); got != 1 {
		t.Errorf("errors counter = %v, want 1", got)
	}
}

func TestUpdateHealth(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewProviderMetrics(Options{Namespace: "test"}, registry)

	pm.UpdateHealth("gemini", true)
	if got := testutil.ToFloat64(pm.health.WithLabelValues("gemini")); got != 1 {
		t.Errorf("health gauge = %v, want 1", got)
	}

	pm.UpdateHealth("gemini", false)
	if got := testutil.ToFloat64(pm.health.WithLabelValues("gemini")); got != 0 {
		t.Errorf("health gauge = %v, want 0", got)
	}
}

func TestRecordTokenRefresh(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewProviderMetrics(Options{}, registry)

	pm.RecordTokenRefresh("qianfan")
	if got := testutil.ToFloat64(pm.tokenRefresh.WithLabelValues("qianfan")); got != 1 {
		t.Errorf("token refresh counter = %v, want 1", got)
	}
}
