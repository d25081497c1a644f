package items

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"insider-hq/relay/pkg/config"
)

// RedisStore keeps items in Redis so several relay instances share them.
//
// Each item is a JSON string at <prefix>item:<path>. Insertion order is kept
// in the sorted set <prefix>index, scored from the <prefix>seq counter.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisStore connects to the server in cfg and verifies it answers.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Address, err)
	}
	s := NewRedisStoreWithClient(client, cfg.Prefix)
	s.logger.Info("item store opened", "address", cfg.Address, "db", cfg.DB, "prefix", s.prefix)
	return s, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = config.DefaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "items.redis"),
		now:    time.Now,
	}
}

func (s *RedisStore) itemKey(path string) string { return s.prefix + "item:" + path }
func (s *RedisStore) indexKey() string           { return s.prefix + "index" }
func (s *RedisStore) seqKey() string             { return s.prefix + "seq" }

func (s *RedisStore) Get(ctx context.Context, path string) (*Item, error) {
	data, err := s.client.Get(ctx, s.itemKey(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", path, err)
	}
	return decodeItem(data)
}

func (s *RedisStore) Put(ctx context.Context, it *Item) error {
	if err := normalize(it); err != nil {
		return err
	}
	stored := it.Clone()
	stored.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("item %s is not serializable: %w", it.Path, err)
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.itemKey(stored.Path), data, 0)
		pipe.ZAddNX(ctx, s.indexKey(), redis.Z{Score: float64(seq), Member: stored.Path})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store item %s: %w", it.Path, err)
	}
	it.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *RedisStore) List(ctx context.Context, kind string) ([]*Item, error) {
	paths, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		if kind == "" || strings.HasPrefix(p, kind+"/") {
			keys = append(keys, s.itemKey(p))
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	out := make([]*Item, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// indexed but deleted underneath us; Maintain drops these
			continue
		}
		it, err := decodeItem([]byte(raw))
		if err != nil {
			s.logger.Warn("skipping corrupt item", "key", keys[i], "error", err)
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.itemKey(path))
		pipe.ZRem(ctx, s.indexKey(), path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", path, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return nil
}

// Maintain drops index entries whose item key no longer exists.
func (s *RedisStore) Maintain(ctx context.Context) error {
	paths, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	var stale []any
	for _, p := range paths {
		n, err := s.client.Exists(ctx, s.itemKey(p)).Result()
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", p, err)
		}
		if n == 0 {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := s.client.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
		return fmt.Errorf("failed to prune index: %w", err)
	}
	s.logger.Info("pruned stale index entries", "count", len(stale))
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeItem(data []byte) (*Item, error) {
	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("corrupt item: %w", err)
	}
	return &it, nil
}
