package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a financed loan. The stored
// states keep the Spanish names the stores' paper ledgers use.
// "atrasado" is derived on read, never stored: a loan flips between
// activo and atrasado purely as a function of the reference date.
type LoanStatus string

const (
	LoanStatusActive     LoanStatus = "activo"
	LoanStatusDelinquent LoanStatus = "atrasado"
	LoanStatusSettled    LoanStatus = "liquidado"
	LoanStatusCancelled  LoanStatus = "cancelado"
)

// Loan is the aggregate root of an installment-financed sale. It
// exclusively owns its installments; sale and customer IDs are opaque
// back-references into external systems.
type Loan struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartDate    time.Time
	ID           string
	SaleID       string
	CustomerID   string
	Status       LoanStatus
	Cadence      Cadence
	Installments []*Installment
	Principal    decimal.Decimal
	DownPayment  decimal.Decimal
	MonthlyRate  decimal.Decimal
	Payment      decimal.Decimal
	PaidAmount   decimal.Decimal
	Term         int
	Version      int64
}

// Closed reports whether the loan is in an absorbing state. Closed
// loans accept no further payment operations.
func (l *Loan) Closed() bool {
	return l.Status == LoanStatusSettled || l.Status == LoanStatusCancelled
}

// OutstandingBalance is the principal not yet covered by paid
// installments. Pure read.
func (l *Loan) OutstandingBalance() decimal.Decimal {
	paid := decimal.Zero
	for _, inst := range l.Installments {
		if inst.Paid {
			paid = paid.Add(inst.Principal)
		}
	}

	return l.Principal.Sub(paid)
}

// InstallmentBySequence finds an installment by its 1-based sequence
// number.
func (l *Loan) InstallmentBySequence(seq int) (*Installment, error) {
	for _, inst := range l.Installments {
		if inst.Sequence == seq {
			return inst, nil
		}
	}

	return nil, ErrUnknownInstallment
}

// EarliestUnpaid returns the first unpaid installment in payment order,
// or nil when everything is paid.
func (l *Loan) EarliestUnpaid() *Installment {
	for _, inst := range l.Installments {
		if !inst.Paid {
			return inst
		}
	}

	return nil
}

// IsDelinquent reports whether the loan is past due as of ref: the
// earliest unpaid installment's due date is more than graceDays behind.
// The grace policy belongs to the caller's configuration, not to the
// ledger.
func (l *Loan) IsDelinquent(ref time.Time, graceDays int) bool {
	if l.Closed() {
		return false
	}

	earliest := l.EarliestUnpaid()
	if earliest == nil {
		return false
	}

	return earliest.Overdue(ref, graceDays)
}

// StatusAt is the externally visible status as of ref. Absorbing states
// win; otherwise delinquency is re-derived on every query.
func (l *Loan) StatusAt(ref time.Time, graceDays int) LoanStatus {
	if l.Closed() {
		return l.Status
	}

	if l.IsDelinquent(ref, graceDays) {
		return LoanStatusDelinquent
	}

	return LoanStatusActive
}

// ApplyPayment applies a cash payment to the installment with the given
// sequence number. All validation happens before any mutation so a
// rejected payment leaves the loan untouched. Overpay beyond tolerance
// fails with ErrOverPayment; the excess must be routed to the next
// installment by the caller, never absorbed here.
func (l *Loan) ApplyPayment(seq int, amount, tolerance decimal.Decimal, now time.Time) (PaymentResult, error) {
	if l.Closed() {
		return PaymentResult{}, ErrLoanClosed
	}

	inst, err := l.InstallmentBySequence(seq)
	if err != nil {
		return PaymentResult{}, err
	}

	if _, err := AllocatePayment(inst.Remaining(), amount, tolerance); err != nil {
		return PaymentResult{}, err
	}

	inst.PaidAmount = inst.PaidAmount.Add(amount)
	if inst.PaidAmount.GreaterThanOrEqual(inst.Payment) {
		inst.Paid = true
		paidAt := now
		inst.PaidAt = &paidAt
	}

	l.PaidAmount = l.PaidAmount.Add(amount)
	l.UpdatedAt = now

	if l.OutstandingBalance().IsZero() && l.EarliestUnpaid() == nil {
		l.Status = LoanStatusSettled
	}

	return PaymentResult{
		Remaining: l.OutstandingBalance(),
		Settled:   l.Status == LoanStatusSettled,
	}, nil
}

// EarlyPayoff settles the loan in a single payment as of asOf. The
// payoff amount is the current principal-only outstanding balance:
// interest for unconsumed periods is waived, a deliberate business rule
// observed on the paper ledgers. Remaining installments are regenerated
// as principal-only rows and marked paid. Calling it on a closed loan
// fails with ErrLoanClosed rather than double-crediting.
func (l *Loan) EarlyPayoff(asOf time.Time) (decimal.Decimal, error) {
	if l.Closed() {
		return decimal.Zero, ErrLoanClosed
	}

	payoff := l.OutstandingBalance()

	for _, inst := range l.Installments {
		if inst.Paid {
			continue
		}

		paidAt := asOf
		inst.Interest = decimal.Zero
		inst.Payment = inst.Principal
		inst.PaidAmount = inst.Principal
		inst.Paid = true
		inst.PaidAt = &paidAt
	}

	l.PaidAmount = l.PaidAmount.Add(payoff)
	l.Status = LoanStatusSettled
	l.UpdatedAt = asOf

	return payoff, nil
}

// Cancel is the administrative terminal transition. It is never derived
// from payment state and is not reversible.
func (l *Loan) Cancel(now time.Time) error {
	if l.Closed() {
		return ErrLoanClosed
	}

	l.Status = LoanStatusCancelled
	l.UpdatedAt = now

	return nil
}
