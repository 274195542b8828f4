// internal/repository/memory/skin_store.go
package memory

import (
	"sync"

	"cardledger/internal/domain"
)

// SkinStore is the in-memory implementation of repository.SkinRepository.
type SkinStore struct {
	mu   sync.RWMutex
	sets map[string]domain.SkinSet
}

func NewSkinStore() *SkinStore {
	return &SkinStore{sets: make(map[string]domain.SkinSet)}
}

func (s *SkinStore) Get(ownerID string) (domain.SkinSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[ownerID]
	return set.Clone(), ok
}

func (s *SkinStore) Put(ownerID string, set domain.SkinSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[ownerID] = set.Clone()
}

func (s *SkinStore) Delete(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, ownerID)
}

func (s *SkinStore) All() map[string]domain.SkinSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.SkinSet, len(s.sets))
	for k, v := range s.sets {
		out[k] = v.Clone()
	}
	return out
}

func (s *SkinStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets)
}
