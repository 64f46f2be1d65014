package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cadence is the payment frequency of a financed loan.
type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
)

var (
	two  = decimal.NewFromInt(2)
	four = decimal.NewFromInt(4)
)

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceWeekly, CadenceBiweekly, CadenceMonthly:
		return true
	}
	return false
}

// PeriodRate derives the per-period rate from a nominal monthly rate.
// The divisions (monthly/2 for biweekly, monthly/4 for weekly) are a
// known approximation rather than an effective-rate conversion; they
// are preserved because changing them would change real financial
// output already on the books.
func (c Cadence) PeriodRate(monthlyRate decimal.Decimal) decimal.Decimal {
	switch c {
	case CadenceWeekly:
		return monthlyRate.Div(four)
	case CadenceBiweekly:
		return monthlyRate.Div(two)
	default:
		return monthlyRate
	}
}

// DueDate returns the due date of the period-th installment counted
// from start. Biweekly periods are 15 calendar days, matching the
// quincena convention the stores collect on.
func (c Cadence) DueDate(start time.Time, period int) time.Time {
	switch c {
	case CadenceWeekly:
		return start.AddDate(0, 0, 7*period)
	case CadenceBiweekly:
		return start.AddDate(0, 0, 15*period)
	default:
		return start.AddDate(0, period, 0)
	}
}
