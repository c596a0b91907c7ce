package providerfactory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

// Manager owns a named set of adapters built from configuration, and runs
// scheduled health sweeps over them.
type Manager struct {
	deps   providers.Deps
	logger *slog.Logger

	mu       sync.RWMutex
	adapters map[string]providers.Adapter

	cron *cron.Cron
}

// NewManager creates an empty manager. Adapters are added with Add or built
// in bulk from settings with Build.
func NewManager(deps providers.Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		deps:     deps,
		logger:   logger,
		adapters: make(map[string]providers.Adapter),
	}
}

// Build constructs adapters for every settings entry and registers them.
// The first configuration error aborts the build.
func (m *Manager) Build(all []providers.Settings) error {
	for _, settings := range all {
		adapter, err := New(settings, m.deps)
		if err != nil {
			return err
		}
		if err := m.Add(adapter); err != nil {
			return err
		}
	}
	return nil
}

// Add registers one adapter. Names must be unique.
func (m *Manager) Add(adapter providers.Adapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := adapter.Name()
	if _, exists := m.adapters[name]; exists {
		return fmt.Errorf("duplicate provider name %q", name)
	}
	m.adapters[name] = adapter
	m.logger.Info("provider registered", "provider", name, "type", adapter.Type())
	return nil
}

// Get returns the adapter registered under name.
func (m *Manager) Get(name string) (providers.Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adapter, ok := m.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return adapter, nil
}

// Names returns the registered provider names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.adapters))
	for name := range m.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ask routes one query to the named provider with the uniform host-facing
// surface: text on success, a single descriptive error otherwise.
func (m *Manager) Ask(ctx context.Context, provider string, messages []providers.Message, onChunk func(delta string)) (string, error) {
	adapter, err := m.Get(provider)
	if err != nil {
		return "", err
	}
	return providers.Ask(ctx, adapter, messages, onChunk)
}

// StartHealthSweeps schedules a reachability probe over all adapters every
// interval. Safe to call once; Stop ends the schedule.
func (m *Manager) StartHealthSweeps(interval time.Duration) error {
	if m.cron != nil {
		return fmt.Errorf("health sweeps already started")
	}
	c := cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := c.AddFunc(spec, m.sweep); err != nil {
		return fmt.Errorf("scheduling health sweeps: %w", err)
	}
	c.Start()
	m.cron = c
	m.logger.Info("health sweeps started", "interval", interval)
	return nil
}

// sweep probes every adapter once. Verdicts land in each adapter's health
// state and the health gauge.
func (m *Manager) sweep() {
	m.mu.RLock()
	adapters := make([]providers.Adapter, 0, len(m.adapters))
	for _, a := range m.adapters {
		adapters = append(adapters, a)
	}
	m.mu.RUnlock()

	for _, adapter := range adapters {
		if err := adapter.HealthCheck(context.Background()); err != nil {
			m.logger.Warn("health sweep failure", "provider", adapter.Name(), "error", err)
		}
	}
}

// Stop ends the health sweeps and closes every adapter.
func (m *Manager) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
		m.cron = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, adapter := range m.adapters {
		if err := adapter.Close(); err != nil {
			m.logger.Warn("closing provider", "provider", name, "error", err)
		}
	}
}
