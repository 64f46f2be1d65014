package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary bounds. Principals above the maximum are rejected at loan
// creation; the value mirrors the largest amount the paper ledgers ever
// carried, with generous headroom.
const (
	MaxPrincipal = "1000000000" // 1 billion
	CentScale    = 2
)

// RoundCent rounds a monetary value to 2 fractional digits using
// round-half-up. Every value committed into a schedule row or aggregate
// passes through here; intermediate arithmetic stays at full precision.
func RoundCent(d decimal.Decimal) decimal.Decimal {
	// decimal.Round is half-away-from-zero, which equals half-up for the
	// non-negative values money takes in this engine.
	return d.Round(CentScale)
}

// IsCentAligned reports whether d carries no sub-cent precision.
func IsCentAligned(d decimal.Decimal) bool {
	return d.Equal(RoundCent(d))
}

// ValidatePayment checks a cash payment amount before it reaches either
// ledger. Zero and negative payments are meaningless; sub-cent payments
// cannot be represented on the paper ledger and are rejected rather than
// silently rounded.
func ValidatePayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !IsCentAligned(amount) {
		return fmt.Errorf("%w: %s", ErrSubCentAmount, amount.String())
	}

	return nil
}

// ValidatePrincipal checks a financed amount at loan or receivable
// creation time.
func ValidatePrincipal(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxPrincipal)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum principal is %s", ErrAmountTooLarge, MaxPrincipal)
	}

	if !IsCentAligned(amount) {
		return fmt.Errorf("%w: %s", ErrSubCentAmount, amount.String())
	}

	return nil
}
