package providers

import (
	"context"
	"time"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// healthCheckTimeout bounds one reachability probe.
const healthCheckTimeout = 5 * time.Second

// HealthCheck probes the provider endpoint. Any HTTP response, including an
// auth rejection, proves the endpoint is reachable; only connection-level
// failures mark the adapter unhealthy. No credentials are sent.
func (b *Base) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req := transport.Request{URL: b.settings.Endpoint}
	out := b.exec.Execute(checkCtx, req, dispatch.TimeoutPolicy{
		Connect: healthCheckTimeout,
		Overall: healthCheckTimeout,
	})

	switch out.Kind {
	case transport.KindConnectionError:
		b.updateHealth(false, out.Detail)
		if b.metrics != nil {
			b.metrics.UpdateHealth(b.settings.Name, false)
		}
		return &ConnectionError{Provider: b.settings.Name, Detail: out.Detail}
	case transport.KindCancelled:
		// Not a verdict on the provider.
		return ErrCancelled
	default:
		b.updateHealth(true, "")
		if b.metrics != nil {
			b.metrics.UpdateHealth(b.settings.Name, true)
		}
		return nil
	}
}

// IsHealthy reports the last recorded health verdict. An adapter that was
// never probed counts as healthy.
func (b *Base) IsHealthy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health.LastCheck.IsZero() || b.health.Healthy
}

// Health returns a snapshot of the adapter's health state.
func (b *Base) Health() Health {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health
}

func (b *Base) updateHealth(healthy bool, errText string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prevFailures := b.health.ConsecutiveFailures
	b.health.Healthy = healthy
	b.health.LastCheck = time.Now()
	b.health.LastError = errText
	if healthy {
		b.health.ConsecutiveFailures = 0
		if prevFailures > 0 {
			b.logger.Info("provider recovered", "previous_failures", prevFailures)
		}
	} else {
		b.health.ConsecutiveFailures++
		b.logger.Warn("provider unreachable",
			"consecutive_failures", b.health.ConsecutiveFailures,
			"error", errText,
		)
	}
}
