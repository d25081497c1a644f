package secrets

import "context"

// Source looks secrets up by name.
type Source interface {
	// Get returns the secret value, or an error wrapping ErrNotFound.
	Get(ctx context.Context, name string) (string, error)

	// Names lists the secret names the source can serve. Values are never
	// returned.
	Names(ctx context.Context) ([]string, error)

	// Kind is "env" or "file".
	Kind() string
}

// Refresher is a Source whose cached values can be dropped.
type Refresher interface {
	Source
	Refresh()
}
