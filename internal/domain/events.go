package domain

import "time"

// Event types
const (
	EventTypeLoanCreated              = "loan.created"
	EventTypeLoanPaymentApplied       = "loan.payment_applied"
	EventTypeLoanSettled              = "loan.settled"
	EventTypeLoanCancelled            = "loan.cancelled"
	EventTypeReceivableCreated        = "receivable.created"
	EventTypeReceivablePaymentApplied = "receivable.payment_applied"
	EventTypeReceivableSettled        = "receivable.settled"
)

// Aggregate types
const (
	AggregateTypeLoan       = "loan"
	AggregateTypeReceivable = "receivable"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// LoanCreatedEvent payload
type LoanCreatedEvent struct {
	LoanID     string `json:"loan_id"`
	SaleID     string `json:"sale_id"`
	CustomerID string `json:"customer_id"`
	Principal  string `json:"principal"`
	Cadence    string `json:"cadence"`
	Term       int    `json:"term"`
}

// LoanPaymentAppliedEvent payload
type LoanPaymentAppliedEvent struct {
	LoanID      string `json:"loan_id"`
	Sequence    int    `json:"sequence"`
	Amount      string `json:"amount"`
	Outstanding string `json:"outstanding"`
}

// LoanSettledEvent payload
type LoanSettledEvent struct {
	LoanID       string `json:"loan_id"`
	PayoffAmount string `json:"payoff_amount,omitempty"`
	EarlyPayoff  bool   `json:"early_payoff"`
}

// ReceivablePaymentAppliedEvent payload
type ReceivablePaymentAppliedEvent struct {
	ReceivableID string `json:"receivable_id"`
	Amount       string `json:"amount"`
	BalanceDue   string `json:"balance_due"`
}
