package items

import (
	"context"
	"fmt"
)

// Entry is an item as presented to the authoring UI: its own fields plus its
// visible details, flattened into one object.
type Entry map[string]any

// Listing is the response of GET /relay/config.
type Listing struct {
	Tools     []Entry `json:"tools"`
	Providers []Entry `json:"providers"`
}

// Lister is the read side of a Store.
type Lister interface {
	List(ctx context.Context, kind string) ([]*Item, error)
}

var reservedKeys = map[string]bool{
	"path": true, "type": true, "id": true, "enabled": true, "title": true, "icon": true, "ordinal": true,
}

// IsHidden reports whether a details key is kept out of listings. Keys
// starting with "_" or "." hold credentials and internal state.
func IsHidden(key string) bool {
	return key != "" && (key[0] == '_' || key[0] == '.')
}

// BuildListing lists tools and providers in store order.
func BuildListing(ctx context.Context, store Lister) (*Listing, error) {
	tools, err := entries(ctx, store, KindTools)
	if err != nil {
		return nil, err
	}
	providers, err := entries(ctx, store, KindProviders)
	if err != nil {
		return nil, err
	}
	return &Listing{Tools: tools, Providers: providers}, nil
}

func entries(ctx context.Context, store Lister, kind string) ([]Entry, error) {
	list, err := store.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	out := make([]Entry, 0, len(list))
	for i, it := range list {
		out = append(out, NewEntry(it, i))
	}
	return out, nil
}

// NewEntry flattens it. Empty type, id, title and icon are omitted; details
// never shadow the item's own fields.
func NewEntry(it *Item, ordinal int) Entry {
	e := Entry{
		"path":    it.Path,
		"enabled": it.Enabled,
		"ordinal": ordinal,
	}
	putNonEmpty(e, "type", it.Type)
	putNonEmpty(e, "id", it.ID)
	putNonEmpty(e, "title", it.Title)
	putNonEmpty(e, "icon", it.Icon)

	for k, v := range it.Details {
		if IsHidden(k) || reservedKeys[k] {
			continue
		}
		e[k] = v
	}
	return e
}

func putNonEmpty(e Entry, key, value string) {
	if value != "" {
		e[key] = value
	}
}
