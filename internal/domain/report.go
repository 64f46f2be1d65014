package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioReport is a read-only rollup over the two ledgers. It is
// derived entirely from loan and receivable records and holds no state
// of its own.
type PortfolioReport struct {
	From                 time.Time
	To                   time.Time
	GeneratedAt          time.Time
	InterestCollected    decimal.Decimal
	OutstandingPortfolio decimal.Decimal
	ReceivablesPending   decimal.Decimal
	ActiveLoans          int
	DelinquentLoans      int
	SettledLoans         int
}

// InterestCollected sums the interest portion of installments paid
// within [from, to). Installments settled by early payoff carry zero
// interest by then, so waived interest never counts as collected.
func InterestCollected(loans []*Loan, from, to time.Time) decimal.Decimal {
	total := decimal.Zero

	for _, loan := range loans {
		for _, inst := range loan.Installments {
			if !inst.Paid || inst.PaidAt == nil {
				continue
			}

			if inst.PaidAt.Before(from) || !inst.PaidAt.Before(to) {
				continue
			}

			total = total.Add(inst.Interest)
		}
	}

	return total
}

// OutstandingPortfolio sums the outstanding balance of all non-terminal
// loans.
func OutstandingPortfolio(loans []*Loan) decimal.Decimal {
	total := decimal.Zero

	for _, loan := range loans {
		if loan.Closed() {
			continue
		}

		total = total.Add(loan.OutstandingBalance())
	}

	return total
}

// CountDelinquent counts loans that are atrasado as of ref under the
// given grace policy.
func CountDelinquent(loans []*Loan, ref time.Time, graceDays int) int {
	count := 0
	for _, loan := range loans {
		if loan.IsDelinquent(ref, graceDays) {
			count++
		}
	}

	return count
}

// ReceivablesPending sums the balance due across unsettled receivables.
func ReceivablesPending(receivables []*Receivable) decimal.Decimal {
	total := decimal.Zero

	for _, r := range receivables {
		if r.Settled() {
			continue
		}

		total = total.Add(r.BalanceDue())
	}

	return total
}

// BuildPortfolioReport assembles the full rollup in one pass. ref is
// the reference date for delinquency; [from, to) is the collection
// window for interest.
func BuildPortfolioReport(loans []*Loan, receivables []*Receivable, from, to, ref time.Time, graceDays int) *PortfolioReport {
	report := &PortfolioReport{
		From:                 from,
		To:                   to,
		GeneratedAt:          ref,
		InterestCollected:    InterestCollected(loans, from, to),
		OutstandingPortfolio: OutstandingPortfolio(loans),
		ReceivablesPending:   ReceivablesPending(receivables),
		DelinquentLoans:      CountDelinquent(loans, ref, graceDays),
	}

	for _, loan := range loans {
		switch {
		case loan.Status == LoanStatusSettled:
			report.SettledLoans++
		case !loan.Closed():
			report.ActiveLoans++
		}
	}

	return report
}
