// internal/domain/amount.go
package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"cardledger/internal/util"
)

// maxAmount keeps balances well inside int64 after repeated deposits.
var maxAmount = decimal.NewFromInt(1_000_000_000_000)

// ParseAmount parses a user-supplied amount ("100", "1e3", " 42 ").
// Fractions, non-numeric input and non-positive values are rejected.
func ParseAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, util.ErrInvalidAmount
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal validates an already decoded amount.
func AmountFromDecimal(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() || !d.IsPositive() || d.GreaterThan(maxAmount) {
		return 0, util.ErrInvalidAmount
	}
	return d.IntPart(), nil
}

// ValidateAmount checks an integer amount passed directly to the ledger.
func ValidateAmount(amount int64) error {
	if amount <= 0 || amount > maxAmount.IntPart() {
		return util.ErrInvalidAmount
	}
	return nil
}
