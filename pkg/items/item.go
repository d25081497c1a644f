package items

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Well-known item kinds.
const (
	KindTools     = "tools"
	KindProviders = "providers"
)

// TokenDetail is the details key holding a per-item bearer token override.
const TokenDetail = "_token"

var (
	// ErrNotFound is returned when no item exists at a path.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidPath is returned for paths not of the form <kind>/<name>.
	ErrInvalidPath = errors.New("item path must be <kind>/<name>")
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Item is a named configuration record, such as a tool or a provider
// definition used by the authoring UI.
type Item struct {
	Path      string         `json:"path"`
	Type      string         `json:"type,omitempty"`
	ID        string         `json:"id,omitempty"`
	Enabled   bool           `json:"enabled"`
	Title     string         `json:"title,omitempty"`
	Icon      string         `json:"icon,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Kind returns the first path segment.
func (it *Item) Kind() string {
	kind, _, _ := strings.Cut(it.Path, "/")
	return kind
}

// Detail returns the string value of a details key, or "".
func (it *Item) Detail(key string) string {
	if it == nil || it.Details == nil {
		return ""
	}
	s, _ := it.Details[key].(string)
	return s
}

// Clone returns a deep enough copy for stores to hand out.
func (it *Item) Clone() *Item {
	c := *it
	if it.Details != nil {
		c.Details = make(map[string]any, len(it.Details))
		for k, v := range it.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// ParsePath splits and validates a <kind>/<name> path.
func ParsePath(path string) (kind, name string, err error) {
	kind, name, ok := strings.Cut(strings.Trim(path, "/"), "/")
	if !ok || !segmentPattern.MatchString(kind) || !segmentPattern.MatchString(name) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return kind, name, nil
}

// JoinPath builds a path from its segments.
func JoinPath(kind, name string) string {
	return kind + "/" + name
}

// normalize validates it and trims its path in place.
func normalize(it *Item) error {
	if it == nil {
		return errors.New("item is nil")
	}
	kind, name, err := ParsePath(it.Path)
	if err != nil {
		return err
	}
	it.Path = JoinPath(kind, name)
	return nil
}
