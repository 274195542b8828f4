// internal/domain/card.go
package domain

import "time"

// DefaultOwnerName is used when a snapshot entry carries no cached owner name.
const DefaultOwnerName = "неизвестен"

// DefaultColor is plain white (0xFFFFFF), used when a snapshot entry has no color.
const DefaultColor = 0xFFFFFF

// Card is a stored-value ledger record.
// Card values are copies; mutating one never affects the ledger.
type Card struct {
	ID               string    `json:"id"`                 // NNNN-NNNN, never reused
	OwnerID          string    `json:"owner_id"`           // Stable account identifier
	OwnerDisplayName string    `json:"owner_display_name"` // Cached, not authoritative
	Balance          int64     `json:"balance"`            // Whole currency units, never negative
	CreatedAt        time.Time `json:"created_at"`         // Immutable
	LastUsedAt       time.Time `json:"last_used_at"`
	Color            int       `json:"color"` // RGB, assigned at creation
}

// NewCard creates a zero-balance card for the given owner.
// Timestamps are truncated to whole seconds so they survive a snapshot round-trip.
func NewCard(id, ownerID, ownerName string, color int, now time.Time) Card {
	now = now.Truncate(time.Second)
	return Card{
		ID:               id,
		OwnerID:          ownerID,
		OwnerDisplayName: ownerName,
		Balance:          0,
		CreatedAt:        now,
		LastUsedAt:       now,
		Color:            color & 0xFFFFFF,
	}
}

// IsOwnedBy reports whether ownerID owns the card.
func (c Card) IsOwnedBy(ownerID string) bool {
	return c.OwnerID == ownerID
}
