package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Term bounds for generated schedules.
const (
	MinTerm = 2
	MaxTerm = 48
)

var one = decimal.NewFromInt(1)

// ScheduleInput is the input to schedule generation. MonthlyRate is the
// nominal monthly rate as a fraction (0.05 for 5%); the cadence derives
// its own per-period rate from it.
type ScheduleInput struct {
	StartDate   time.Time
	Principal   decimal.Decimal
	MonthlyRate decimal.Decimal
	Cadence     Cadence
	Term        int
}

// Validate checks the generation input.
func (in ScheduleInput) Validate() error {
	if err := ValidatePrincipal(in.Principal); err != nil {
		return err
	}

	if in.MonthlyRate.IsNegative() {
		return ErrInvalidRate
	}

	if !in.Cadence.Valid() {
		return ErrInvalidCadence
	}

	if in.Term < MinTerm || in.Term > MaxTerm {
		return ErrInvalidTerm
	}

	return nil
}

// LevelPayment computes the constant per-period payment for the French
// amortization method: P * r / (1 - (1+r)^-n), rounded to the cent.
// A zero rate degrades to straight division to avoid dividing by zero.
func LevelPayment(principal, periodRate decimal.Decimal, term int) decimal.Decimal {
	n := int64(term)

	if periodRate.IsZero() {
		return RoundCent(principal.Div(decimal.NewFromInt(n)))
	}

	compound := one.Add(periodRate).Pow(decimal.NewFromInt(n))
	factor := one.Sub(one.Div(compound))

	return RoundCent(principal.Mul(periodRate).Div(factor))
}

// GenerateSchedule produces the full amortization schedule for a loan.
// It is a pure function: deterministic, no side effects, LoanID left
// unset for the caller to bind at persistence time.
//
// Each row's money fields are independently rounded to the cent; the
// final row's principal is then forced to whatever remains of the
// principal (closing balance forced to zero) so that the sum of all
// principal portions equals the financed amount exactly. Without this
// adjustment rounding drifts a few cents over long terms, which a
// hand-kept ledger would never tolerate.
func GenerateSchedule(in ScheduleInput) ([]*Installment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rate := in.Cadence.PeriodRate(in.MonthlyRate)
	payment := LevelPayment(in.Principal, rate, in.Term)

	installments := make([]*Installment, 0, in.Term)
	balance := in.Principal

	for seq := 1; seq <= in.Term; seq++ {
		interest := RoundCent(balance.Mul(rate))
		principal := payment.Sub(interest)
		closing := balance.Sub(principal)

		// The last row absorbs the rounding residue. A non-final row can
		// only undershoot zero when rounding pushed the level payment
		// above what the balance supports; clamp it the same way.
		if seq == in.Term || closing.IsNegative() {
			principal = balance
			closing = decimal.Zero
		}

		if principal.IsNegative() {
			principal = decimal.Zero
			closing = balance
		}

		installments = append(installments, &Installment{
			Sequence:       seq,
			DueDate:        in.Cadence.DueDate(in.StartDate, seq),
			OpeningBalance: balance,
			Interest:       interest,
			Principal:      principal,
			ClosingBalance: closing,
			Payment:        interest.Add(principal),
			PaidAmount:     decimal.Zero,
		})

		balance = closing
	}

	if err := reconcile(in.Principal, installments); err != nil {
		return nil, err
	}

	return installments, nil
}

// reconcile asserts the invariants every generated schedule must hold:
// principal portions sum to the financed amount exactly, each row's
// balances chain, and the final row closes at zero. A failure here is a
// defect in generation, never a user error, and aborts before any row
// can be persisted.
func reconcile(principal decimal.Decimal, installments []*Installment) error {
	sum := decimal.Zero
	balance := principal

	for _, inst := range installments {
		if !inst.OpeningBalance.Equal(balance) {
			return ErrReconciliation
		}

		if !inst.OpeningBalance.Sub(inst.Principal).Equal(inst.ClosingBalance) {
			return ErrReconciliation
		}

		sum = sum.Add(inst.Principal)
		balance = inst.ClosingBalance
	}

	if !sum.Equal(principal) {
		return ErrReconciliation
	}

	if !balance.IsZero() {
		return ErrReconciliation
	}

	return nil
}
