// internal/repository/card_repo.go
package repository

import (
	"time"

	"cardledger/internal/domain"
)

// CardRepository is the authoritative card map plus the append-only used-id set.
// Reads return copies; no caller ever holds a reference into the store.
type CardRepository interface {
	// Get returns a copy of the card; ok is false when the id is unknown.
	Get(id string) (card domain.Card, ok bool)
	// Exists reports whether a live card has this id.
	Exists(id string) bool
	// Put inserts or overwrites a card and marks its id as used.
	Put(card domain.Card)
	// Remove deletes a live card. The id stays reserved forever.
	Remove(id string) bool
	// AllRecords returns an independent copy of every live card.
	AllRecords() []domain.Card
	// ListByOwner returns the owner's cards sorted by id.
	ListByOwner(ownerID string) []domain.Card
	// Len is the number of live cards.
	Len() int

	// AddBalance credits a card. It returns false, changing nothing, if the
	// card does not exist or the balance would overflow.
	AddBalance(id string, amount int64) bool
	// RemoveBalance debits a card. It returns false, changing nothing,
	// if the card does not exist or amount exceeds the balance.
	RemoveBalance(id string, amount int64) bool
	// Transfer moves amount between two cards and stamps both as used at the
	// given time, all under one lock, so no reader sees a half-applied move.
	// On util.ErrSelfTransfer, util.ErrCardNotFound, util.ErrInsufficientFunds
	// or util.ErrBalanceOverflow nothing changes.
	Transfer(fromID, toID string, amount int64, at time.Time) (from, to domain.Card, err error)
	// SetBalance overwrites the balance. Negative values are rejected.
	SetBalance(id string, amount int64) bool
	// UpdateLastUsed stamps the card's last-used time.
	UpdateLastUsed(id string, at time.Time) bool
	// SetOwnerName refreshes the cached owner display name.
	SetOwnerName(id, name string) bool

	// Reserve claims an id in the used set; false if it was already taken.
	Reserve(id string) bool
	// Retire marks an id as used without a live card (destroyed earlier).
	Retire(id string)
	// UsedIDs returns every id ever issued, sorted.
	UsedIDs() []string
	// RetiredIDs returns used ids that have no live card, sorted.
	RetiredIDs() []string
}
