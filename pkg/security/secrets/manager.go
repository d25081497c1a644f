package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"insider-hq/relay/pkg/config"
)

// ErrNotFound is returned when no source holds a secret.
var ErrNotFound = errors.New("secret not found")

var referencePattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager resolves secrets from an ordered list of sources; the first source
// holding a value wins. Manager implements config.SecretResolver.
type Manager struct {
	sources []Source
}

// NewManager creates a Manager over sources.
func NewManager(sources ...Source) *Manager {
	return &Manager{sources: sources}
}

// NewManagerFromConfig creates a Manager reading the environment first and the
// secrets directory second, when one is configured.
func NewManagerFromConfig(cfg config.SecretsConfig) (*Manager, error) {
	sources := []Source{NewEnvSource(cfg.EnvPrefix)}
	if cfg.Directory != "" {
		fs, err := NewFileSource(cfg.Directory, cfg.Watch)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fs)
	}
	return NewManager(sources...), nil
}

// Get returns the named secret.
func (m *Manager) Get(ctx context.Context, name string) (string, error) {
	var errs []error
	for _, s := range m.sources {
		value, err := s.Get(ctx, name)
		if err == nil {
			slog.Debug("secret resolved", "source", s.Kind(), "name", maskName(name))
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", s.Kind(), err))
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("failed to get secret %q: %w", name, errors.Join(errs...))
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// ResolveReferences replaces every ${secret:name} in value. Unresolvable
// references are left in place and reported together.
func (m *Manager) ResolveReferences(ctx context.Context, value string) (string, error) {
	var errs []error
	out := referencePattern.ReplaceAllStringFunc(value, func(ref string) string {
		name := referencePattern.FindStringSubmatch(ref)[1]
		secret, err := m.Get(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return ref
		}
		return secret
	})
	return out, errors.Join(errs...)
}

// Names lists the secret names of every source, deduplicated.
func (m *Manager) Names(ctx context.Context) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range m.sources {
		list, err := s.Names(ctx)
		if err != nil {
			slog.Warn("failed to list secrets", "source", s.Kind(), "error", err)
			continue
		}
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

// Refresh drops the cached values of every refreshable source.
func (m *Manager) Refresh() {
	for _, s := range m.sources {
		if r, ok := s.(Refresher); ok {
			r.Refresh()
		}
	}
}

// Close releases sources holding watchers.
func (m *Manager) Close() error {
	var errs []error
	for _, s := range m.sources {
		if c, ok := s.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func maskName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
