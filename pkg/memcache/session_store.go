// pkg/memcache/session_store.go
package mem

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	lastSeen time.Time
}

// Store is an in-memory map whose entries expire after a period without
// access. Get refreshes an entry's idle timer.
type Store[V any] struct {
	mu   sync.RWMutex
	data map[string]entry[V]
	now  func() time.Time
}

func NewStore[V any]() *Store[V] {
	return &Store[V]{
		data: make(map[string]entry[V]),
		now:  time.Now,
	}
}

func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry[V]{value: value, lastSeen: s.now()}
}

func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	e.lastSeen = s.now()
	s.data[key] = e
	return e.value, true
}

// Delete removes key and returns the value it held.
func (s *Store[V]) Delete(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if ok {
		delete(s.data, key)
	}
	return e.value, ok
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// EvictIdle removes entries not accessed within ttl and returns them.
func (s *Store[V]) EvictIdle(ttl time.Duration) []V {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []V
	for k, e := range s.data {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.value)
			delete(s.data, k)
		}
	}
	return evicted
}

// Drain empties the store and returns everything it held.
func (s *Store[V]) Drain() []V {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]V, 0, len(s.data))
	for k, e := range s.data {
		out = append(out, e.value)
		delete(s.data, k)
	}
	return out
}
