package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvSource reads secrets from environment variables. The secret
// "relay-key" is read from Prefix + "RELAY_KEY".
type EnvSource struct {
	Prefix string
}

// NewEnvSource creates an EnvSource.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{Prefix: prefix}
}

func (s *EnvSource) Get(_ context.Context, name string) (string, error) {
	key := s.envVar(name)
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s (env var %s)", ErrNotFound, name, key)
	}
	return value, nil
}

func (s *EnvSource) Names(context.Context) ([]string, error) {
	var names []string
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, s.Prefix) || key == s.Prefix {
			continue
		}
		names = append(names, strings.ToLower(strings.TrimPrefix(key, s.Prefix)))
	}
	return names, nil
}

func (s *EnvSource) Kind() string { return "env" }

func (s *EnvSource) envVar(name string) string {
	var sb strings.Builder
	sb.WriteString(s.Prefix)
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
