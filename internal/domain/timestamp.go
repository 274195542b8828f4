// internal/domain/timestamp.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the snapshot timestamp format (dd-MM-yyyy HH:mm:ss).
const TimestampLayout = "02-01-2006 15:04:05"

// FormatTimestamp renders t in the snapshot format using the local zone.
// The zero time renders as an empty string.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(TimestampLayout)
}

// ParseTimestamp parses a snapshot timestamp in the local zone.
// An empty string yields the zero time. The layout carries no offset, so a
// wall time inside a repeated DST hour may come back one hour off.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
