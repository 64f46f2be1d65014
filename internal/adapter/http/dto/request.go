package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

// CreateLoanRequest is the completed-sale event posted by the POS when
// a customer finances a purchase.
type CreateLoanRequest struct {
	SaleID      string          `json:"sale_id"`
	CustomerID  string          `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DownPayment decimal.Decimal `json:"down_payment"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	Cadence     string          `json:"cadence"`
	Term        int             `json:"term"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateLoanRequest) ToUseCaseInput() usecase.CreateLoanInput {
	return usecase.CreateLoanInput{
		SaleID:      r.SaleID,
		CustomerID:  r.CustomerID,
		TotalAmount: r.TotalAmount,
		DownPayment: r.DownPayment,
		MonthlyRate: r.MonthlyRate,
		Cadence:     domain.Cadence(r.Cadence),
		Term:        r.Term,
		StartDate:   r.StartDate,
	}
}

// ApplyPaymentRequest records a cash payment against one installment.
type ApplyPaymentRequest struct {
	Sequence int             `json:"sequence"`
	Amount   decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *ApplyPaymentRequest) ToUseCaseInput(loanID string) usecase.ApplyPaymentInput {
	return usecase.ApplyPaymentInput{
		LoanID:   loanID,
		Sequence: r.Sequence,
		Amount:   r.Amount,
	}
}

// CreateReceivableRequest opens a running tab for an open-credit sale.
type CreateReceivableRequest struct {
	SaleID     string          `json:"sale_id"`
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateReceivableRequest) ToUseCaseInput() usecase.CreateReceivableInput {
	return usecase.CreateReceivableInput{
		SaleID:     r.SaleID,
		CustomerID: r.CustomerID,
		Total:      r.Total,
	}
}

// ReceivablePaymentRequest records a payment against a running tab.
type ReceivablePaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
