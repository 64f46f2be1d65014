package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceivableStatus is the lifecycle state of an open-credit balance.
type ReceivableStatus string

const (
	ReceivableStatusPending ReceivableStatus = "pendiente"
	ReceivableStatusPartial ReceivableStatus = "parcial"
	ReceivableStatusPaid    ReceivableStatus = "pagado"
)

// Receivable is the simpler sibling of Loan: a single running balance
// for a sale taken on open credit. These are informal running tabs, so
// there is no schedule, no due dates and no interest.
type Receivable struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ID             string
	SaleID         string
	CustomerID     string
	Status         ReceivableStatus
	OriginalAmount decimal.Decimal
	PaidAmount     decimal.Decimal
	Version        int64
}

// BalanceDue is the amount still owed.
func (r *Receivable) BalanceDue() decimal.Decimal {
	return r.OriginalAmount.Sub(r.PaidAmount)
}

// Settled reports whether the balance has reached zero.
func (r *Receivable) Settled() bool {
	return r.Status == ReceivableStatusPaid
}

// ApplyPayment applies a cash payment against the running balance.
// Overpay is rejected outright; a rejected payment leaves the
// receivable unchanged.
func (r *Receivable) ApplyPayment(amount decimal.Decimal, now time.Time) (PaymentResult, error) {
	if r.Settled() {
		return PaymentResult{}, ErrAlreadySettled
	}

	result, err := AllocatePayment(r.BalanceDue(), amount, decimal.Zero)
	if err != nil {
		return PaymentResult{}, err
	}

	r.PaidAmount = r.PaidAmount.Add(amount)
	r.UpdatedAt = now

	switch {
	case r.BalanceDue().IsZero():
		r.Status = ReceivableStatusPaid
	case r.PaidAmount.IsPositive():
		r.Status = ReceivableStatusPartial
	}

	return result, nil
}
