package domain

import "errors"

var (
	// Money errors
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")
	ErrSubCentAmount  = errors.New("amount has sub-cent precision")

	// Schedule errors
	ErrInvalidTerm     = errors.New("term must be between 2 and 48 periods")
	ErrInvalidCadence  = errors.New("unknown payment cadence")
	ErrInvalidRate     = errors.New("rate must not be negative")
	ErrReconciliation  = errors.New("schedule does not reconcile with principal")

	// Loan errors
	ErrLoanNotFound       = errors.New("loan not found")
	ErrLoanClosed         = errors.New("loan is closed")
	ErrUnknownInstallment = errors.New("installment sequence not part of loan")
	ErrOverPayment        = errors.New("payment exceeds amount owed")

	// Receivable errors
	ErrReceivableNotFound = errors.New("receivable not found")
	ErrAlreadySettled     = errors.New("receivable is already settled")
)
