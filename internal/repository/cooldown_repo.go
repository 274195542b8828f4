// internal/repository/cooldown_repo.go
package repository

import "time"

// CooldownRepository maps owner ids to the instant their creation cooldown ends.
// Expired entries are kept; they are inert.
type CooldownRepository interface {
	Get(ownerID string) (time.Time, bool)
	Set(ownerID string, expiresAt time.Time)
	// IsActive is true iff an expiry is recorded and now is before it.
	IsActive(ownerID string, now time.Time) bool
	// RemainingDuration is zero when the cooldown is inactive.
	RemainingDuration(ownerID string, now time.Time) time.Duration
	// All returns a copy of every entry.
	All() map[string]time.Time
	Len() int
}
