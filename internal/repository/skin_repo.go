// internal/repository/skin_repo.go
package repository

import "cardledger/internal/domain"

// SkinRepository stores the skins each owner has unlocked.
type SkinRepository interface {
	Get(ownerID string) (domain.SkinSet, bool)
	Put(ownerID string, set domain.SkinSet)
	Delete(ownerID string)
	// All returns a deep copy of every entry.
	All() map[string]domain.SkinSet
	Len() int
}
