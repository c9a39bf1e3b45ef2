package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore evicts the least recently used entry once it holds more than its
// capacity. Entries never expire by time.
type LRUStore[V any] struct {
	mu    sync.Mutex
	items *lru.Cache[string, *Future[V]]
}

// NewLRUStore creates a store holding at most size entries
func NewLRUStore[V any](size int) (*LRUStore[V], error) {
	items, err := lru.New[string, *Future[V]](size)
	if err != nil {
		return nil, fmt.Errorf("lru store size %d: %w", size, err)
	}
	return &LRUStore[V]{items: items}, nil
}

// GetOrAdd implements Store. A hit refreshes the entry's recency.
func (s *LRUStore[V]) GetOrAdd(key string, f *Future[V]) (*Future[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.items.Get(key); ok {
		return cur, true
	}
	s.items.Add(key, f)
	return f, false
}

// Remove implements Store
func (s *LRUStore[V]) Remove(key string, f *Future[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.items.Peek(key); ok && cur == f {
		s.items.Remove(key)
	}
}

// Contains reports whether key is cached without touching its recency
func (s *LRUStore[V]) Contains(key string) bool {
	return s.items.Contains(key)
}

// Clear implements Clearer
func (s *LRUStore[V]) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.items.Len()
	s.items.Purge()
	return n
}

// Len implements Clearer
func (s *LRUStore[V]) Len() int {
	return s.items.Len()
}
