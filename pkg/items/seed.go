package items

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/security/crypto"
)

// FromSeed converts a configured seed into an Item. Flagged details are
// encrypted with enc.
func FromSeed(seed config.ItemSeed, enc crypto.Encrypter) (*Item, error) {
	details, err := SealDetails(seed.Details, enc)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", seed.Path, err)
	}
	it := &Item{
		Path:    seed.Path,
		Type:    seed.Type,
		ID:      seed.ID,
		Enabled: seed.Enabled == nil || *seed.Enabled,
		Title:   seed.Title,
		Icon:    seed.Icon,
		Details: details,
	}
	if err := normalize(it); err != nil {
		return nil, fmt.Errorf("seed %s: %w", seed.Path, err)
	}
	return it, nil
}

// Seed stores every seed whose path is not in store yet and returns how many
// were added. Items edited at runtime are never overwritten.
func Seed(ctx context.Context, store Store, seeds []config.ItemSeed, enc crypto.Encrypter) (int, error) {
	added := 0
	for _, seed := range seeds {
		it, err := FromSeed(seed, enc)
		if err != nil {
			return added, err
		}
		_, err = store.Get(ctx, it.Path)
		switch {
		case err == nil:
			slog.Debug("seed item already present", "path", it.Path)
			continue
		case !errors.Is(err, ErrNotFound):
			return added, err
		}
		if err := store.Put(ctx, it); err != nil {
			return added, err
		}
		added++
	}
	if added > 0 {
		slog.Info("seeded configuration items", "added", added, "declared", len(seeds))
	}
	return added, nil
}
