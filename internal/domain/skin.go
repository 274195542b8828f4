// internal/domain/skin.go
package domain

import (
	"strconv"
	"strings"

	"cardledger/internal/util"
)

// SkinSet lists the cosmetic skins an owner has unlocked.
type SkinSet struct {
	OwnerName string   `json:"name"`
	Skins     []string `json:"skins"`
}

// Has reports whether skinID is unlocked.
func (s SkinSet) Has(skinID string) bool {
	for _, id := range s.Skins {
		if id == skinID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s SkinSet) Clone() SkinSet {
	out := SkinSet{OwnerName: s.OwnerName}
	if s.Skins != nil {
		out.Skins = append([]string(nil), s.Skins...)
	}
	return out
}

// NormalizeSkinID checks that the id is a (possibly negative) integer and
// returns its canonical decimal form.
func NormalizeSkinID(raw string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", util.ErrInvalidSkin
	}
	return strconv.Itoa(n), nil
}
