// internal/repository/memory/card_store.go
package memory

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"cardledger/internal/domain"
	"cardledger/internal/util"
)

// CardStore is the in-memory implementation of repository.CardRepository.
type CardStore struct {
	mu    sync.RWMutex
	cards map[string]domain.Card
	used  map[string]struct{}
}

// NewCardStore creates an empty CardStore.
func NewCardStore() *CardStore {
	return &CardStore{
		cards: make(map[string]domain.Card),
		used:  make(map[string]struct{}),
	}
}

func (s *CardStore) Get(id string) (domain.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[id]
	return c, ok
}

func (s *CardStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cards[id]
	return ok
}

func (s *CardStore) Put(card domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.ID] = card
	s.used[card.ID] = struct{}{}
}

func (s *CardStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return false
	}
	delete(s.cards, id)
	return true
}

func (s *CardStore) AllRecords() []domain.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *CardStore) ListByOwner(ownerID string) []domain.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Card
	for _, c := range s.cards {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *CardStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

func (s *CardStore) AddBalance(id string, amount int64) bool {
	return s.update(id, func(c *domain.Card) bool {
		if !canCredit(c.Balance, amount) {
			return false
		}
		c.Balance += amount
		return true
	})
}

func canCredit(balance, amount int64) bool {
	return amount <= math.MaxInt64-balance
}

func (s *CardStore) Transfer(fromID, toID string, amount int64, at time.Time) (domain.Card, domain.Card, error) {
	if fromID == toID {
		return domain.Card{}, domain.Card{}, util.ErrSelfTransfer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.cards[fromID]
	if !ok {
		return domain.Card{}, domain.Card{}, fmt.Errorf("source %s: %w", fromID, util.ErrCardNotFound)
	}
	to, ok := s.cards[toID]
	if !ok {
		return domain.Card{}, domain.Card{}, fmt.Errorf("destination %s: %w", toID, util.ErrCardNotFound)
	}
	if amount > from.Balance {
		return domain.Card{}, domain.Card{}, util.ErrInsufficientFunds
	}
	if !canCredit(to.Balance, amount) {
		return domain.Card{}, domain.Card{}, fmt.Errorf("destination %s: %w", toID, util.ErrBalanceOverflow)
	}

	at = at.Truncate(time.Second)
	from.Balance -= amount
	from.LastUsedAt = at
	to.Balance += amount
	to.LastUsedAt = at
	s.cards[fromID] = from
	s.cards[toID] = to
	return from, to, nil
}

func (s *CardStore) RemoveBalance(id string, amount int64) bool {
	return s.update(id, func(c *domain.Card) bool {
		if amount > c.Balance {
			return false
		}
		c.Balance -= amount
		return true
	})
}

func (s *CardStore) SetBalance(id string, amount int64) bool {
	if amount < 0 {
		return false
	}
	return s.update(id, func(c *domain.Card) bool {
		c.Balance = amount
		return true
	})
}

func (s *CardStore) UpdateLastUsed(id string, at time.Time) bool {
	return s.update(id, func(c *domain.Card) bool {
		c.LastUsedAt = at.Truncate(time.Second)
		return true
	})
}

func (s *CardStore) SetOwnerName(id, name string) bool {
	return s.update(id, func(c *domain.Card) bool {
		c.OwnerDisplayName = name
		return true
	})
}

// update applies fn to a copy and stores it only when fn reports success.
func (s *CardStore) update(id string, fn func(*domain.Card) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return false
	}
	if !fn(&c) {
		return false
	}
	s.cards[id] = c
	return true
}

func (s *CardStore) Reserve(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.used[id]; ok {
		return false
	}
	s.used[id] = struct{}{}
	return true
}

func (s *CardStore) Retire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used[id] = struct{}{}
}

func (s *CardStore) UsedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.used))
	for id := range s.used {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *CardStore) RetiredIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for id := range s.used {
		if _, live := s.cards[id]; !live {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
