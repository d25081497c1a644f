package items

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps items in process memory. Everything is lost on exit.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Item
	order []string
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*Item),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, path string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return it.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, it *Item) error {
	if err := normalize(it); err != nil {
		return err
	}
	stored := it.Clone()
	stored.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[stored.Path]; !exists {
		s.order = append(s.order, stored.Path)
	}
	s.items[stored.Path] = stored
	it.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *MemoryStore) List(_ context.Context, kind string) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Item, 0, len(s.order))
	for _, path := range s.order {
		it := s.items[path]
		if kind == "" || it.Kind() == kind {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[path]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	delete(s.items, path)
	s.order = slices.DeleteFunc(s.order, func(p string) bool { return p == path })
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*Item)
	s.order = nil
	return nil
}
