package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/infrastructure/metrics"
)

// LoanUseCase owns the loan ledger: schedule generation at creation,
// payment application, early payoff and administrative cancellation.
// All mutating operations run inside a transaction holding a row lock
// on the loan, so at most one payment application runs per loan at a
// time.
type LoanUseCase struct {
	txManager        TransactionManager
	loanRepo         LoanRepository
	installmentRepo  InstallmentRepository
	outboxRepo       OutboxRepository
	auditRepo        AuditRepository
	idGen            IDGenerator
	clock            Clock
	metrics          *metrics.Metrics
	retrier          Retrier
	overpayTolerance decimal.Decimal
	graceDays        int
}

// LoanUseCaseConfig bundles the dependencies of LoanUseCase.
type LoanUseCaseConfig struct {
	TxManager        TransactionManager
	LoanRepo         LoanRepository
	InstallmentRepo  InstallmentRepository
	OutboxRepo       OutboxRepository
	AuditRepo        AuditRepository
	IDGen            IDGenerator
	Clock            Clock
	Metrics          *metrics.Metrics
	OverpayTolerance decimal.Decimal
	GraceDays        int
}

// NewLoanUseCase creates a new LoanUseCase.
func NewLoanUseCase(cfg LoanUseCaseConfig) *LoanUseCase {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	if cfg.GraceDays <= 0 {
		cfg.GraceDays = DefaultGraceDays
	}

	return &LoanUseCase{
		txManager:        cfg.TxManager,
		loanRepo:         cfg.LoanRepo,
		installmentRepo:  cfg.InstallmentRepo,
		outboxRepo:       cfg.OutboxRepo,
		auditRepo:        cfg.AuditRepo,
		idGen:            cfg.IDGen,
		clock:            cfg.Clock,
		metrics:          cfg.Metrics,
		overpayTolerance: cfg.OverpayTolerance,
		graceDays:        cfg.GraceDays,
	}
}

// WithRetrier enables transparent retry of payment transactions on
// transient database conflicts.
func (uc *LoanUseCase) WithRetrier(r Retrier) *LoanUseCase {
	uc.retrier = r
	return uc
}

// CreateLoanInput is the completed-sale event that triggers financing.
// The sale itself is validated upstream; this core only derives the
// financed amount and generates the schedule.
type CreateLoanInput struct {
	StartDate   *time.Time
	SaleID      string
	CustomerID  string
	Cadence     domain.Cadence
	TotalAmount decimal.Decimal
	DownPayment decimal.Decimal
	MonthlyRate decimal.Decimal
	Term        int
}

// CreateLoan creates a loan and its full amortization schedule in one
// transaction.
func (uc *LoanUseCase) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	if input.DownPayment.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	principal := domain.RoundCent(input.TotalAmount.Sub(input.DownPayment))

	now := uc.clock.Now()
	startDate := now
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	installments, err := domain.GenerateSchedule(domain.ScheduleInput{
		Principal:   principal,
		MonthlyRate: input.MonthlyRate,
		Cadence:     input.Cadence,
		Term:        input.Term,
		StartDate:   startDate,
	})
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ID:           uc.idGen.Generate(),
		SaleID:       input.SaleID,
		CustomerID:   input.CustomerID,
		Principal:    principal,
		DownPayment:  input.DownPayment,
		MonthlyRate:  input.MonthlyRate,
		Cadence:      input.Cadence,
		Term:         input.Term,
		Payment:      installments[0].Payment,
		PaidAmount:   decimal.Zero,
		Status:       domain.LoanStatusActive,
		StartDate:    startDate,
		Installments: installments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, inst := range installments {
		inst.ID = uc.idGen.Generate()
		inst.LoanID = loan.ID
		inst.CreatedAt = now
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.loanRepo.Create(txCtx, tx, loan); err != nil {
		return nil, err
	}

	if err := uc.installmentRepo.CreateBatch(txCtx, tx, installments); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanCreated,
		Payload: map[string]any{
			"loan_id":     loan.ID,
			"sale_id":     loan.SaleID,
			"customer_id": loan.CustomerID,
			"principal":   loan.Principal.String(),
			"cadence":     string(loan.Cadence),
			"term":        loan.Term,
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
			Action:       string(domain.AuditActionLoanCreate),
			ResourceType: domain.AggregateTypeLoan,
			ResourceID:   loan.ID,
			AfterState:   domain.MarshalState(loan),
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
		uc.metrics.LoansCreated.Inc()
	}

	return loan, nil
}

// ApplyPaymentInput identifies a cash payment against one installment.
type ApplyPaymentInput struct {
	LoanID   string
	Sequence int
	Amount   decimal.Decimal
}

// ApplyPaymentOutput reports the aggregate after a successful payment.
type ApplyPaymentOutput struct {
	Loan        *domain.Loan
	Installment *domain.Installment
	Outstanding decimal.Decimal
	Status      domain.LoanStatus
}

// ApplyPayment applies a payment to the targeted installment under a
// row lock. Any rejection happens before the first repository write, so
// a failed payment leaves the stored aggregate byte-for-byte unchanged.
func (uc *LoanUseCase) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentOutput, error) {
	if uc.retrier == nil {
		return uc.applyPayment(ctx, input)
	}

	var output *ApplyPaymentOutput
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		output, err = uc.applyPayment(ctx, input)
		return err
	})

	return output, err
}

func (uc *LoanUseCase) applyPayment(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentOutput, error) {
	start := uc.clock.Now()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	loan, err := uc.loanRepo.GetByIDForUpdate(txCtx, tx, input.LoanID)
	if err != nil {
		return nil, err
	}

	wasSettled := loan.Status == domain.LoanStatusSettled
	before := domain.MarshalState(loan)

	now := uc.clock.Now()
	if _, err := loan.ApplyPayment(input.Sequence, input.Amount, uc.overpayTolerance, now); err != nil {
		uc.countPaymentError(err)
		return nil, err
	}

	inst, err := loan.InstallmentBySequence(input.Sequence)
	if err != nil {
		return nil, err
	}

	if err := uc.installmentRepo.Update(txCtx, tx, inst); err != nil {
		return nil, err
	}

	if err := uc.loanRepo.UpdateState(txCtx, tx, loan); err != nil {
		return nil, err
	}

	outstanding := loan.OutstandingBalance()

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanPaymentApplied,
		Payload: map[string]any{
			"loan_id":     loan.ID,
			"sequence":    input.Sequence,
			"amount":      input.Amount.String(),
			"outstanding": outstanding.String(),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if !wasSettled && loan.Status == domain.LoanStatusSettled {
		settled := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   loan.ID,
			AggregateType: domain.AggregateTypeLoan,
			EventType:     domain.EventTypeLoanSettled,
			Payload: map[string]any{
				"loan_id":      loan.ID,
				"early_payoff": false,
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
			Action:       string(domain.AuditActionLoanPayment),
			ResourceType: domain.AggregateTypeLoan,
			ResourceID:   loan.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(loan),
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
		uc.metrics.PaymentsApplied.WithLabelValues(domain.AggregateTypeLoan).Inc()
		amount, _ := input.Amount.Float64()
		uc.metrics.PaymentAmount.Observe(amount)
		uc.metrics.PaymentDuration.Observe(uc.clock.Now().Sub(start).Seconds())
		if loan.Status == domain.LoanStatusSettled {
			uc.metrics.LoansSettled.Inc()
		}
	}

	return &ApplyPaymentOutput{
		Loan:        loan,
		Installment: inst,
		Outstanding: outstanding,
		Status:      loan.StatusAt(now, uc.graceDays),
	}, nil
}

// EarlyPayoffOutput reports the result of an early payoff.
type EarlyPayoffOutput struct {
	Loan         *domain.Loan
	PayoffAmount decimal.Decimal
}

// EarlyPayoff settles a loan in one principal-only payment, waiving the
// interest of unconsumed periods.
func (uc *LoanUseCase) EarlyPayoff(ctx context.Context, loanID string) (*EarlyPayoffOutput, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	loan, err := uc.loanRepo.GetByIDForUpdate(txCtx, tx, loanID)
	if err != nil {
		return nil, err
	}

	before := domain.MarshalState(loan)

	now := uc.clock.Now()
	payoff, err := loan.EarlyPayoff(now)
	if err != nil {
		uc.countPaymentError(err)
		return nil, err
	}

	if err := uc.installmentRepo.UpdateBatch(txCtx, tx, loan.Installments); err != nil {
		return nil, err
	}

	if err := uc.loanRepo.UpdateState(txCtx, tx, loan); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanSettled,
		Payload: map[string]any{
			"loan_id":       loan.ID,
			"payoff_amount": payoff.String(),
			"early_payoff":  true,
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
			Action:       string(domain.AuditActionLoanPayoff),
			ResourceType: domain.AggregateTypeLoan,
			ResourceID:   loan.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(loan),
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
		uc.metrics.EarlyPayoffs.Inc()
		uc.metrics.LoansSettled.Inc()
	}

	return &EarlyPayoffOutput{Loan: loan, PayoffAmount: payoff}, nil
}

// CancelLoan is the administrative terminal transition.
func (uc *LoanUseCase) CancelLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	loan, err := uc.loanRepo.GetByIDForUpdate(txCtx, tx, loanID)
	if err != nil {
		return nil, err
	}

	before := domain.MarshalState(loan)

	now := uc.clock.Now()
	if err := loan.Cancel(now); err != nil {
		return nil, err
	}

	if err := uc.loanRepo.UpdateState(txCtx, tx, loan); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanCancelled,
		Payload: map[string]any{
			"loan_id": loan.ID,
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
			Action:       string(domain.AuditActionLoanCancel),
			ResourceType: domain.AggregateTypeLoan,
			ResourceID:   loan.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(loan),
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
		uc.metrics.LoansCancelled.Inc()
	}

	return loan, nil
}

// GetLoan retrieves a loan with its installments.
func (uc *LoanUseCase) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return uc.loanRepo.GetByID(ctx, id)
}

// Outstanding returns the outstanding balance and the derived status as
// of now. Pure read; the activo/atrasado distinction is recomputed on
// every call.
func (uc *LoanUseCase) Outstanding(ctx context.Context, id string) (decimal.Decimal, domain.LoanStatus, error) {
	loan, err := uc.loanRepo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, "", err
	}

	return loan.OutstandingBalance(), loan.StatusAt(uc.clock.Now(), uc.graceDays), nil
}

// ListLoansInput represents input for listing loans.
type ListLoansInput struct {
	Limit  int
	Offset int
}

// ListLoans lists loans with pagination.
func (uc *LoanUseCase) ListLoans(ctx context.Context, input ListLoansInput) ([]*domain.Loan, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.loanRepo.List(ctx, input.Limit, input.Offset)
}

func (uc *LoanUseCase) countPaymentError(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.PaymentErrors.WithLabelValues(errorType(err)).Inc()
}

func errorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrSubCentAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrOverPayment):
		return "over_payment"
	case errors.Is(err, domain.ErrUnknownInstallment):
		return "unknown_installment"
	case errors.Is(err, domain.ErrLoanClosed):
		return "loan_closed"
	case errors.Is(err, domain.ErrAlreadySettled):
		return "already_settled"
	default:
		return "other"
	}
}
