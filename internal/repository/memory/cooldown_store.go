// internal/repository/memory/cooldown_store.go
package memory

import (
	"maps"
	"sync"
	"time"
)

// CooldownStore is the in-memory implementation of repository.CooldownRepository.
type CooldownStore struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

func NewCooldownStore() *CooldownStore {
	return &CooldownStore{expires: make(map[string]time.Time)}
}

func (s *CooldownStore) Get(ownerID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.expires[ownerID]
	return t, ok
}

func (s *CooldownStore) Set(ownerID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[ownerID] = expiresAt
}

func (s *CooldownStore) IsActive(ownerID string, now time.Time) bool {
	t, ok := s.Get(ownerID)
	return ok && now.Before(t)
}

func (s *CooldownStore) RemainingDuration(ownerID string, now time.Time) time.Duration {
	t, ok := s.Get(ownerID)
	if !ok || !now.Before(t) {
		return 0
	}
	return t.Sub(now)
}

func (s *CooldownStore) All() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.expires)
}

func (s *CooldownStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expires)
}
