package domain

import (
	"github.com/shopspring/decimal"
)

// PaymentResult is what a ledger reports back after applying a cash
// payment, so callers can react without re-querying the aggregate.
type PaymentResult struct {
	Remaining decimal.Decimal
	Settled   bool
}

// AllocatePayment is the shared payment-application rule used by both
// the loan and receivable ledgers: the amount must be a valid payment,
// and must not exceed what is owed by more than the overpay tolerance.
// Excess is never absorbed silently; routing it elsewhere (for example
// to the next installment) is the caller's decision.
//
// AllocatePayment holds no state and performs no mutation; the ledger
// that calls it applies the returned result atomically or not at all.
func AllocatePayment(owed, amount, tolerance decimal.Decimal) (PaymentResult, error) {
	if err := ValidatePayment(amount); err != nil {
		return PaymentResult{}, err
	}

	if amount.GreaterThan(owed.Add(tolerance)) {
		return PaymentResult{}, ErrOverPayment
	}

	remaining := owed.Sub(amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return PaymentResult{
		Remaining: remaining,
		Settled:   remaining.IsZero(),
	}, nil
}
