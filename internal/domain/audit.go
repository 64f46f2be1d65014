package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for every mutating ledger
// operation, mirroring the hand-initialed margin notes of the paper
// ledgers this system replaces.
type AuditLog struct {
	ID           string
	Actor        string // Who performed the action
	Action       string // What action (loan.payment, receivable.payment, etc.)
	ResourceType string // Type of resource (loan, receivable)
	ResourceID   string // ID of the resource
	RequestID    string // Request ID for tracing
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure, error
	ErrorMessage string // If status=error, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionLoanCreate  AuditAction = "loan.create"
	AuditActionLoanPayment AuditAction = "loan.payment"
	AuditActionLoanPayoff  AuditAction = "loan.payoff"
	AuditActionLoanCancel  AuditAction = "loan.cancel"

	AuditActionReceivableCreate  AuditAction = "receivable.create"
	AuditActionReceivablePayment AuditAction = "receivable.payment"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}
