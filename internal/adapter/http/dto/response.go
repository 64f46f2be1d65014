package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
)

// InstallmentResponse represents one schedule row in API responses.
type InstallmentResponse struct {
	ID             string          `json:"id"`
	Sequence       int             `json:"sequence"`
	DueDate        time.Time       `json:"due_date"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Interest       decimal.Decimal `json:"interest"`
	Principal      decimal.Decimal `json:"principal"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Payment        decimal.Decimal `json:"payment"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Paid           bool            `json:"paid"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

// InstallmentFromDomain converts a domain installment to a response.
func InstallmentFromDomain(inst *domain.Installment) *InstallmentResponse {
	return &InstallmentResponse{
		ID:             inst.ID,
		Sequence:       inst.Sequence,
		DueDate:        inst.DueDate,
		OpeningBalance: inst.OpeningBalance,
		Interest:       inst.Interest,
		Principal:      inst.Principal,
		ClosingBalance: inst.ClosingBalance,
		Payment:        inst.Payment,
		PaidAmount:     inst.PaidAmount,
		Paid:           inst.Paid,
		PaidAt:         inst.PaidAt,
	}
}

// LoanResponse represents a loan in API responses. Status is always the
// derived status as of the serving instant, never the stored one.
type LoanResponse struct {
	ID           string                 `json:"id"`
	SaleID       string                 `json:"sale_id"`
	CustomerID   string                 `json:"customer_id"`
	Principal    decimal.Decimal        `json:"principal"`
	DownPayment  decimal.Decimal        `json:"down_payment"`
	MonthlyRate  decimal.Decimal        `json:"monthly_rate"`
	Cadence      string                 `json:"cadence"`
	Term         int                    `json:"term"`
	Payment      decimal.Decimal        `json:"payment"`
	PaidAmount   decimal.Decimal        `json:"paid_amount"`
	Outstanding  decimal.Decimal        `json:"outstanding"`
	Status       string                 `json:"status"`
	StartDate    time.Time              `json:"start_date"`
	Installments []*InstallmentResponse `json:"installments,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// LoanFromDomain converts a domain loan to a response, deriving the
// status at ref under the given grace policy.
func LoanFromDomain(loan *domain.Loan, ref time.Time, graceDays int) *LoanResponse {
	installments := make([]*InstallmentResponse, len(loan.Installments))
	for i, inst := range loan.Installments {
		installments[i] = InstallmentFromDomain(inst)
	}

	return &LoanResponse{
		ID:           loan.ID,
		SaleID:       loan.SaleID,
		CustomerID:   loan.CustomerID,
		Principal:    loan.Principal,
		DownPayment:  loan.DownPayment,
		MonthlyRate:  loan.MonthlyRate,
		Cadence:      string(loan.Cadence),
		Term:         loan.Term,
		Payment:      loan.Payment,
		PaidAmount:   loan.PaidAmount,
		Outstanding:  loan.OutstandingBalance(),
		Status:       string(loan.StatusAt(ref, graceDays)),
		StartDate:    loan.StartDate,
		Installments: installments,
		CreatedAt:    loan.CreatedAt,
		UpdatedAt:    loan.UpdatedAt,
	}
}

// LoansFromDomain converts domain loans to responses without their
// installments, for listings.
func LoansFromDomain(loans []*domain.Loan, ref time.Time, graceDays int) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, loan := range loans {
		resp := LoanFromDomain(loan, ref, graceDays)
		resp.Installments = nil
		result[i] = resp
	}
	return result
}

// PaymentResponse reports the aggregate after a payment.
type PaymentResponse struct {
	LoanID      string               `json:"loan_id"`
	Installment *InstallmentResponse `json:"installment"`
	Outstanding decimal.Decimal      `json:"outstanding"`
	Status      string               `json:"status"`
}

// PayoffResponse reports a completed early payoff.
type PayoffResponse struct {
	LoanID       string          `json:"loan_id"`
	PayoffAmount decimal.Decimal `json:"payoff_amount"`
	Status       string          `json:"status"`
}

// OutstandingResponse reports a loan's live balance and status.
type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Status      string          `json:"status"`
}

// ReceivableResponse represents a receivable in API responses.
type ReceivableResponse struct {
	ID             string          `json:"id"`
	SaleID         string          `json:"sale_id"`
	CustomerID     string          `json:"customer_id"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ReceivableFromDomain converts a domain receivable to a response.
func ReceivableFromDomain(r *domain.Receivable) *ReceivableResponse {
	return &ReceivableResponse{
		ID:             r.ID,
		SaleID:         r.SaleID,
		CustomerID:     r.CustomerID,
		OriginalAmount: r.OriginalAmount,
		PaidAmount:     r.PaidAmount,
		BalanceDue:     r.BalanceDue(),
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ReceivablesFromDomain converts domain receivables to responses.
func ReceivablesFromDomain(receivables []*domain.Receivable) []*ReceivableResponse {
	result := make([]*ReceivableResponse, len(receivables))
	for i, r := range receivables {
		result[i] = ReceivableFromDomain(r)
	}
	return result
}

// PortfolioReportResponse represents the reporting rollup.
type PortfolioReportResponse struct {
	From                 time.Time       `json:"from"`
	To                   time.Time       `json:"to"`
	GeneratedAt          time.Time       `json:"generated_at"`
	InterestCollected    decimal.Decimal `json:"interest_collected"`
	OutstandingPortfolio decimal.Decimal `json:"outstanding_portfolio"`
	ReceivablesPending   decimal.Decimal `json:"receivables_pending"`
	ActiveLoans          int             `json:"active_loans"`
	DelinquentLoans      int             `json:"delinquent_loans"`
	SettledLoans         int             `json:"settled_loans"`
}

// ReportFromDomain converts a domain report to a response.
func ReportFromDomain(report *domain.PortfolioReport) *PortfolioReportResponse {
	return &PortfolioReportResponse{
		From:                 report.From,
		To:                   report.To,
		GeneratedAt:          report.GeneratedAt,
		InterestCollected:    report.InterestCollected,
		OutstandingPortfolio: report.OutstandingPortfolio,
		ReceivablesPending:   report.ReceivablesPending,
		ActiveLoans:          report.ActiveLoans,
		DelinquentLoans:      report.DelinquentLoans,
		SettledLoans:         report.SettledLoans,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
