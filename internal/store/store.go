// Package store provides the ordered keyed store backing a snack queue.
package store

import (
	"log/slog"
	"slices"
	"sync"
)

// Store is an insertion-ordered map from id to item with thread-safe operations.
type Store[K comparable, V any] struct {
	mu     sync.RWMutex
	ids    []K
	items  map[K]V
	logger *slog.Logger

	closed bool
}

// New creates an empty Store.
func New[K comparable, V any](logger *slog.Logger) *Store[K, V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[K, V]{
		ids:    make([]K, 0),
		items:  make(map[K]V),
		logger: logger,
	}
}

// Insert appends id to the order and stores item under it.
// Returns false without modifying anything if id is already present or
// the store is closed.
func (s *Store[K, V]) Insert(id K, item V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, exists := s.items[id]; exists {
		s.logger.Debug("store insert skipped: duplicate id", "id", id)
		return false
	}

	s.ids = append(s.ids, id)
	s.items[id] = item

	return true
}

// Update applies fn to the stored item in place.
// Returns false if id is absent or the store is closed.
func (s *Store[K, V]) Update(id K, fn func(*V)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	item, exists := s.items[id]
	if !exists {
		s.logger.Debug("store update ignored: unknown id", "id", id)
		return false
	}

	fn(&item)
	s.items[id] = item

	return true
}

// Remove deletes id from both the order and the map.
func (s *Store[K, V]) Remove(id K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, exists := s.items[id]; !exists {
		return false
	}

	delete(s.items, id)
	if idx := slices.Index(s.ids, id); idx >= 0 {
		s.ids = slices.Delete(s.ids, idx, idx+1)
	}

	return true
}

// Get returns the item stored under id.
func (s *Store[K, V]) Get(id K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// IDs returns a copy of the ids in insertion order.
func (s *Store[K, V]) IDs() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ids)
}

// Len returns the number of stored items.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Each calls fn for every item in insertion order until fn returns false.
// fn must not call back into the store.
func (s *Store[K, V]) Each(fn func(id K, item V) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.ids {
		if !fn(id, s.items[id]) {
			return
		}
	}
}

// Close marks the store closed. Later mutations are refused.
func (s *Store[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
