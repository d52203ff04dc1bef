package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is used when no Redis address is configured. Entries expire after ttl.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	locks  map[string]time.Time
	values map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		locks:  make(map[string]time.Time),
		values: make(map[string]entry),
	}
}

func memoryKey(scope, key string) string {
	return scope + ":" + key
}

func (s *MemoryStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey(scope, key)
	now := s.now()
	s.prune(now)
	if _, ok := s.locks[k]; ok {
		return false, nil
	}
	s.locks[k] = now.Add(s.ttl)
	return true, nil
}

// prune drops expired locks and records. mu must be held.
func (s *MemoryStore) prune(now time.Time) {
	for k, expiresAt := range s.locks {
		if !now.Before(expiresAt) {
			delete(s.locks, k)
		}
	}
	for k, e := range s.values {
		if !now.Before(e.expiresAt) {
			delete(s.values, k)
		}
	}
}

func (s *MemoryStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, memoryKey(scope, key))
	return nil
}

func (s *MemoryStore) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The record answers every later request for the key, so the lock is no longer needed.
	k := memoryKey(scope, key)
	delete(s.locks, k)
	s.values[k] = entry{value: value, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey(scope, key)
	e, ok := s.values[k]
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.values, k)
		return "", false, nil
	}
	return e.value, true, nil
}

var _ Store = (*MemoryStore)(nil)
