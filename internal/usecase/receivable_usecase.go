package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/infrastructure/metrics"
)

// ReceivableUseCase owns the running-tab ledger for informal credit
// sales. Receivables have no schedule and no interest; payments of any
// size chip away at the total until it is settled.
type ReceivableUseCase struct {
	txManager      TransactionManager
	receivableRepo ReceivableRepository
	outboxRepo     OutboxRepository
	auditRepo      AuditRepository
	idGen          IDGenerator
	clock          Clock
	metrics        *metrics.Metrics
	retrier        Retrier
}

// ReceivableUseCaseConfig bundles the dependencies of ReceivableUseCase.
type ReceivableUseCaseConfig struct {
	TxManager      TransactionManager
	ReceivableRepo ReceivableRepository
	OutboxRepo     OutboxRepository
	AuditRepo      AuditRepository
	IDGen          IDGenerator
	Clock          Clock
	Metrics        *metrics.Metrics
}

// NewReceivableUseCase creates a new ReceivableUseCase.
func NewReceivableUseCase(cfg ReceivableUseCaseConfig) *ReceivableUseCase {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	return &ReceivableUseCase{
		txManager:      cfg.TxManager,
		receivableRepo: cfg.ReceivableRepo,
		outboxRepo:     cfg.OutboxRepo,
		auditRepo:      cfg.AuditRepo,
		idGen:          cfg.IDGen,
		clock:          cfg.Clock,
		metrics:        cfg.Metrics,
	}
}

// WithRetrier enables transparent retry of payment transactions on
// transient database conflicts.
func (uc *ReceivableUseCase) WithRetrier(r Retrier) *ReceivableUseCase {
	uc.retrier = r
	return uc
}

// CreateReceivableInput represents input for opening a receivable.
type CreateReceivableInput struct {
	SaleID     string
	CustomerID string
	Total      decimal.Decimal
}

// CreateReceivable opens a running tab for a credit sale.
func (uc *ReceivableUseCase) CreateReceivable(ctx context.Context, input CreateReceivableInput) (*domain.Receivable, error) {
	if err := domain.ValidatePrincipal(input.Total); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	receivable := &domain.Receivable{
		ID:             uc.idGen.Generate(),
		SaleID:         input.SaleID,
		CustomerID:     input.CustomerID,
		OriginalAmount: domain.RoundCent(input.Total),
		PaidAmount:     decimal.Zero,
		Status:         domain.ReceivableStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.receivableRepo.Create(txCtx, tx, receivable); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   receivable.ID,
		AggregateType: domain.AggregateTypeReceivable,
		EventType:     domain.EventTypeReceivableCreated,
		Payload: map[string]any{
			"receivable_id": receivable.ID,
			"sale_id":       receivable.SaleID,
			"customer_id":   receivable.CustomerID,
			"total":         receivable.OriginalAmount.String(),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			Actor:        actorFromContext(ctx),
			Action:       string(domain.AuditActionReceivableCreate),
			ResourceType: domain.AggregateTypeReceivable,
			ResourceID:   receivable.ID,
			AfterState:   domain.MarshalState(receivable),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		}
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReceivablesCreated.Inc()
	}

	return receivable, nil
}

// ApplyPaymentOutput for receivables reports the running tab after a
// payment.
type ReceivablePaymentOutput struct {
	Receivable *domain.Receivable
	BalanceDue decimal.Decimal
	Settled    bool
}

// ApplyPayment records a partial or full payment against a receivable
// under a row lock. Overpaying the balance due is rejected with no
// tolerance: receivables carry no interest component to absorb cents.
func (uc *ReceivableUseCase) ApplyPayment(ctx context.Context, receivableID string, amount decimal.Decimal) (*ReceivablePaymentOutput, error) {
	if uc.retrier == nil {
		return uc.applyPayment(ctx, receivableID, amount)
	}

	var output *ReceivablePaymentOutput
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		output, err = uc.applyPayment(ctx, receivableID, amount)
		return err
	})

	return output, err
}

func (uc *ReceivableUseCase) applyPayment(ctx context.Context, receivableID string, amount decimal.Decimal) (*ReceivablePaymentOutput, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	receivable, err := uc.receivableRepo.GetByIDForUpdate(txCtx, tx, receivableID)
	if err != nil {
		return nil, err
	}

	wasSettled := receivable.Settled()
	before := domain.MarshalState(receivable)

	now := uc.clock.Now()
	result, err := receivable.ApplyPayment(amount, now)
	if err != nil {
		uc.countPaymentError(err)
		return nil, err
	}

	if err := uc.receivableRepo.Update(txCtx, tx, receivable); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   receivable.ID,
		AggregateType: domain.AggregateTypeReceivable,
		EventType:     domain.EventTypeReceivablePaymentApplied,
		Payload: map[string]any{
			"receivable_id": receivable.ID,
			"amount":        amount.String(),
			"balance_due":   result.Remaining.String(),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if !wasSettled && receivable.Settled() {
		settled := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   receivable.ID,
			AggregateType: domain.AggregateTypeReceivable,
			EventType:     domain.EventTypeReceivableSettled,
			Payload: map[string]any{
				"receivable_id": receivable.ID,
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, settled); err != nil {
			return nil, err
		}
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			Actor:        actorFromContext(ctx),
			Action:       string(domain.AuditActionReceivablePayment),
			ResourceType: domain.AggregateTypeReceivable,
			ResourceID:   receivable.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(receivable),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		}
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsApplied.WithLabelValues(domain.AggregateTypeReceivable).Inc()
		if receivable.Settled() {
			uc.metrics.ReceivablesSettled.Inc()
		}
	}

	return &ReceivablePaymentOutput{
		Receivable: receivable,
		BalanceDue: result.Remaining,
		Settled:    result.Settled,
	}, nil
}

// GetReceivable retrieves a receivable by ID.
func (uc *ReceivableUseCase) GetReceivable(ctx context.Context, id string) (*domain.Receivable, error) {
	return uc.receivableRepo.GetByID(ctx, id)
}

// ListReceivablesInput represents input for listing receivables.
type ListReceivablesInput struct {
	Limit  int
	Offset int
}

// ListReceivables lists receivables with pagination.
func (uc *ReceivableUseCase) ListReceivables(ctx context.Context, input ListReceivablesInput) ([]*domain.Receivable, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.receivableRepo.List(ctx, input.Limit, input.Offset)
}

func (uc *ReceivableUseCase) countPaymentError(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.PaymentErrors.WithLabelValues(errorType(err)).Inc()
}
