package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/providers"
)

// snapshot is an immutable view of the configured providers.
type snapshot struct {
	ordered []*providers.Provider
	byID    map[string]*providers.Provider
}

// Manager holds the configured providers. Reads are lock-free; Load swaps in
// a complete new set, so a lookup sees either the old or the new
// configuration, never a mix.
//
// Manager is safe for concurrent use.
type Manager struct {
	current atomic.Pointer[snapshot]
	loadMu  sync.Mutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	m := &Manager{}
	m.current.Store(&snapshot{byID: map[string]*providers.Provider{}})
	return m
}

// NewManagerFromConfig creates a manager loaded with cfgs.
func NewManagerFromConfig(cfgs []config.ProviderConfig) (*Manager, error) {
	m := NewManager()
	if err := m.Load(cfgs); err != nil {
		return nil, err
	}
	return m, nil
}

// Load replaces the provider set with cfgs, keeping their order. Invalid
// entries fail the whole load and leave the current set in place.
func (m *Manager) Load(cfgs []config.ProviderConfig) error {
	next := &snapshot{
		ordered: make([]*providers.Provider, 0, len(cfgs)),
		byID:    make(map[string]*providers.Provider, len(cfgs)),
	}

	var errs []error
	for i, c := range cfgs {
		id := strings.TrimSpace(c.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("provider #%d: id is required", i))
			continue
		case next.byID[id] != nil:
			errs = append(errs, fmt.Errorf("provider %q: duplicate id", id))
			continue
		}
		c.ID = id
		p := providers.FromConfig(c)
		next.ordered = append(next.ordered, p)
		next.byID[id] = p
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to load %d provider(s): %w", len(errs), errors.Join(errs...))
	}

	m.loadMu.Lock()
	prev := m.current.Swap(next)
	m.loadMu.Unlock()

	slog.Info("providers loaded",
		"total", len(next.ordered),
		"enabled", countEnabled(next.ordered),
		"previous", len(prev.ordered),
	)
	return nil
}

// Lookup returns the enabled provider with exactly this id.
func (m *Manager) Lookup(id string) (*providers.Provider, bool) {
	p, ok := m.current.Load().byID[id]
	if !ok || !p.Enabled {
		return nil, false
	}
	return p, true
}

// Providers returns all providers, enabled or not, in configuration order.
func (m *Manager) Providers() []*providers.Provider {
	s := m.current.Load()
	out := make([]*providers.Provider, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Enabled returns the enabled providers in configuration order.
func (m *Manager) Enabled() []*providers.Provider {
	s := m.current.Load()
	out := make([]*providers.Provider, 0, len(s.ordered))
	for _, p := range s.ordered {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// ProviderCount returns the total number of providers.
func (m *Manager) ProviderCount() int {
	return len(m.current.Load().ordered)
}

// EnabledCount returns the number of enabled providers.
func (m *Manager) EnabledCount() int {
	return countEnabled(m.current.Load().ordered)
}

// Summary describes a provider without exposing its credentials.
type Summary struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Enabled       bool   `json:"enabled"`
	MaxAttempts   int    `json:"connection_attempts"`
	TimeoutMillis int64  `json:"connection_timeout_ms"`
	HasToken      bool   `json:"has_token"`
	Encrypted     bool   `json:"token_encrypted"`
	Proxied       bool   `json:"proxied"`
	SkipTLSVerify bool   `json:"skip_ssl"`
}

// Summaries returns a Summary per provider in configuration order.
func (m *Manager) Summaries() []Summary {
	s := m.current.Load()
	out := make([]Summary, 0, len(s.ordered))
	for _, p := range s.ordered {
		out = append(out, Summary{
			ID:            p.ID,
			URL:           p.URL,
			Enabled:       p.Enabled,
			MaxAttempts:   p.MaxAttempts,
			TimeoutMillis: p.Timeout.Milliseconds(),
			HasToken:      strings.TrimSpace(p.Token) != "",
			Encrypted:     strings.HasPrefix(p.Token, "enc_"),
			Proxied:       strings.TrimSpace(p.Proxy) != "",
			SkipTLSVerify: p.SkipTLSVerify,
		})
	}
	return out
}

func countEnabled(ps []*providers.Provider) int {
	n := 0
	for _, p := range ps {
		if p.Enabled {
			n++
		}
	}
	return n
}
