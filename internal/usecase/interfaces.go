package usecase

import (
	"context"
	"time"

	"github.com/credipos/engine/internal/domain"
)

// LoanRepository defines data access for loans. Loads always include
// the loan's installments, ordered by sequence.
type LoanRepository interface {
	Create(ctx context.Context, tx Transaction, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Loan, error)
	UpdateState(ctx context.Context, tx Transaction, loan *domain.Loan) error
	List(ctx context.Context, limit, offset int) ([]*domain.Loan, error)
	ListAll(ctx context.Context) ([]*domain.Loan, error)
}

// InstallmentRepository defines data access for schedule rows.
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, installments []*domain.Installment) error
	Update(ctx context.Context, tx Transaction, installment *domain.Installment) error
	UpdateBatch(ctx context.Context, tx Transaction, installments []*domain.Installment) error
	ListByLoan(ctx context.Context, loanID string) ([]*domain.Installment, error)
}

// ReceivableRepository defines data access for open-credit balances.
type ReceivableRepository interface {
	Create(ctx context.Context, tx Transaction, receivable *domain.Receivable) error
	GetByID(ctx context.Context, id string) (*domain.Receivable, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Receivable, error)
	Update(ctx context.Context, tx Transaction, receivable *domain.Receivable) error
	List(ctx context.Context, limit, offset int) ([]*domain.Receivable, error)
	ListAll(ctx context.Context) ([]*domain.Receivable, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient failures such as deadlocks
// or serialization conflicts. Domain rejections are permanent and must
// never be retried.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Clock supplies the current date. It is injected so delinquency and
// payoff calculations are deterministic under test; ledger logic never
// reads the ambient clock directly.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
