// internal/domain/cooldown.go
package domain

import (
	"fmt"
	"time"
)

// CooldownEntry records when an owner may create a new card again.
type CooldownEntry struct {
	OwnerID   string    `json:"owner_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsActive reports whether the cooldown still applies at now.
func (c CooldownEntry) IsActive(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Remaining is zero once the cooldown has expired.
func (c CooldownEntry) Remaining(now time.Time) time.Duration {
	if !c.IsActive(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// FormatRemaining renders a duration as "Hh Mm Ss" for user-facing messages.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0h 0m 0s"
	}
	d = d.Round(time.Second)
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	s := int64((d % time.Minute) / time.Second)
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
