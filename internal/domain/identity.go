// internal/domain/identity.go
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"cardledger/internal/util"
)

var (
	cardIDPattern  = regexp.MustCompile(`^\d{4}-\d{4}$`)
	rawIDPattern   = regexp.MustCompile(`^\d{8}$`)
	ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)
)

// IsCardID reports whether s has the canonical NNNN-NNNN shape.
func IsCardID(s string) bool {
	return cardIDPattern.MatchString(s)
}

// NormalizeCardID accepts "12345678" or "1234-5678" and returns "1234-5678".
func NormalizeCardID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch {
	case cardIDPattern.MatchString(s):
		return s, nil
	case rawIDPattern.MatchString(s):
		return s[:4] + "-" + s[4:], nil
	default:
		return "", util.ErrInvalidCardID
	}
}

// NormalizeOwnerID canonicalizes an owner identifier.
// UUIDs in any accepted textual form (upper case, braces, urn:uuid:) are
// rewritten to the lower-case hyphenated form; other ids are accepted as-is
// when they are short, printable and free of whitespace.
func NormalizeOwnerID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", util.ErrInvalidOwner
	}
	if id, err := uuid.Parse(s); err == nil {
		return id.String(), nil
	}
	if !ownerIDPattern.MatchString(s) {
		return "", util.ErrInvalidOwner
	}
	return s, nil
}
