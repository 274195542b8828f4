// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
	"time"
)

// Common ledger errors. Every rejected operation maps to exactly one of these
// so the integration layer can show the actor a precise reason.
var (
	ErrCardNotFound      = errors.New("card not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("resulting balance is too large")
	ErrInvalidAmount     = errors.New("amount must be a positive whole number")
	ErrSelfTransfer      = errors.New("cannot transfer to the same card")
	ErrAlreadyExists     = errors.New("card id already exists")
	ErrInvalidCardID     = errors.New("card id must be exactly 8 digits")
	ErrCooldownActive    = errors.New("card creation cooldown is active")
	ErrIDExhausted       = errors.New("unable to allocate a unique card id")
	ErrInvalidOwner      = errors.New("invalid owner id")
	ErrCardNotEmpty      = errors.New("card balance must be zero to destroy it")
	ErrPersistence       = errors.New("failed to persist ledger state")

	// Skin errors
	ErrInvalidSkin      = errors.New("skin id must be numeric")
	ErrUnknownSkin      = errors.New("skin does not exist")
	ErrSkinAlreadyOwned = errors.New("skin already unlocked")
	ErrSkinNotOwned     = errors.New("skin is not unlocked")
)

// CooldownError reports an active creation cooldown together with the time
// left until it expires.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s remaining", ErrCooldownActive.Error(), e.Remaining.Round(time.Second))
}

// Is makes errors.Is(err, ErrCooldownActive) match.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// PersistenceError wraps an I/O failure while writing or reading a snapshot.
// The in-memory mutation that triggered the write has already been applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence.Error(), e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsPersistenceError reports whether err only signals a failed snapshot write.
// Callers receiving it should treat the business effect as completed.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
