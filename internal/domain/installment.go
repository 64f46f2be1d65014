package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one row of a loan's amortization schedule. Rows are
// created in a single batch at loan creation and mutated only through
// payment application or an early-payoff regeneration; they are never
// deleted individually.
type Installment struct {
	CreatedAt      time.Time
	PaidAt         *time.Time
	ID             string
	LoanID         string
	Sequence       int
	DueDate        time.Time
	OpeningBalance decimal.Decimal
	Interest       decimal.Decimal
	Principal      decimal.Decimal
	ClosingBalance decimal.Decimal
	Payment        decimal.Decimal
	PaidAmount     decimal.Decimal
	Paid           bool
}

// Remaining returns the cash still owed on this installment.
func (i *Installment) Remaining() decimal.Decimal {
	if i.Paid {
		return decimal.Zero
	}

	remaining := i.Payment.Sub(i.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}

	return remaining
}

// Overdue reports whether the installment was due before ref, after the
// given grace period, and is still unpaid.
func (i *Installment) Overdue(ref time.Time, graceDays int) bool {
	if i.Paid {
		return false
	}

	return ref.After(i.DueDate.AddDate(0, 0, graceDays))
}
