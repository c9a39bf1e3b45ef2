package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTLStore expires entries by age since insertion, regardless of access.
// Size is bounded only by expiry.
type TTLStore[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items *gocache.Cache
}

type ttlEntry[V any] struct {
	fut        *Future[V]
	insertedAt time.Time
}

// TTLOption configures a TTLStore
type TTLOption func(*ttlConfig)

type ttlConfig struct {
	now     func() time.Time
	cleanup time.Duration
}

// WithClock overrides the wall clock used for expiry checks
func WithClock(now func() time.Time) TTLOption {
	return func(c *ttlConfig) { c.now = now }
}

// WithCleanupInterval sets how often expired entries are purged in the
// background. Defaults to the TTL.
func WithCleanupInterval(d time.Duration) TTLOption {
	return func(c *ttlConfig) { c.cleanup = d }
}

// NewTTLStore creates a store whose entries live for ttl
func NewTTLStore[V any](ttl time.Duration, opts ...TTLOption) *TTLStore[V] {
	cfg := ttlConfig{now: time.Now, cleanup: ttl}
	for _, o := range opts {
		o(&cfg)
	}
	return &TTLStore[V]{
		ttl:   ttl,
		now:   cfg.now,
		items: gocache.New(ttl, cfg.cleanup),
	}
}

// TTL returns the configured time-to-live
func (s *TTLStore[V]) TTL() time.Duration {
	return s.ttl
}

func (s *TTLStore[V]) live(e ttlEntry[V], now time.Time) bool {
	return now.Sub(e.insertedAt) < s.ttl
}

// GetOrAdd implements Store
func (s *TTLStore[V]) GetOrAdd(key string, f *Future[V]) (*Future[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if v, ok := s.items.Get(key); ok {
		if e := v.(ttlEntry[V]); s.live(e, now) {
			return e.fut, true
		}
	}
	s.items.Set(key, ttlEntry[V]{fut: f, insertedAt: now}, gocache.DefaultExpiration)
	return f, false
}

// Remove implements Store
func (s *TTLStore[V]) Remove(key string, f *Future[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.items.Get(key); ok && v.(ttlEntry[V]).fut == f {
		s.items.Delete(key)
	}
}

// Clear implements Clearer
func (s *TTLStore[V]) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.countLive()
	s.items.Flush()
	return n
}

// Len implements Clearer
func (s *TTLStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLive()
}

func (s *TTLStore[V]) countLive() int {
	now := s.now()
	n := 0
	for _, item := range s.items.Items() {
		if e, ok := item.Object.(ttlEntry[V]); ok && s.live(e, now) {
			n++
		}
	}
	return n
}
