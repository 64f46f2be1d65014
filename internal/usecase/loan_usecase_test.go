package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
	"github.com/credipos/engine/internal/usecase/mocks"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time { return c.now }

// passthroughRetrier runs the operation once, like the real retrier
// does when no transient error occurs.
type passthroughRetrier struct {
	calls int
}

func (r *passthroughRetrier) Retry(ctx context.Context, op func() error) error {
	r.calls++
	return op()
}

var testStart = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

type loanMocks struct {
	loanRepo        *mocks.MockLoanRepository
	installmentRepo *mocks.MockInstallmentRepository
	outboxRepo      *mocks.MockOutboxRepository
	auditRepo       *mocks.MockAuditRepository
	txManager       *mocks.MockTransactionManager
}

func newLoanUseCase(clock usecase.Clock) (*usecase.LoanUseCase, *loanMocks) {
	m := &loanMocks{
		loanRepo:        mocks.NewMockLoanRepository(),
		installmentRepo: mocks.NewMockInstallmentRepository(),
		outboxRepo:      mocks.NewMockOutboxRepository(),
		auditRepo:       mocks.NewMockAuditRepository(),
		txManager:       mocks.NewMockTransactionManager(),
	}

	uc := usecase.NewLoanUseCase(usecase.LoanUseCaseConfig{
		TxManager:        m.txManager,
		LoanRepo:         m.loanRepo,
		InstallmentRepo:  m.installmentRepo,
		OutboxRepo:       m.outboxRepo,
		AuditRepo:        m.auditRepo,
		IDGen:            mocks.NewMockIDGenerator(),
		Clock:            clock,
		OverpayTolerance: decimal.RequireFromString("0.01"),
		GraceDays:        3,
	})

	return uc, m
}

func createTestLoan(t *testing.T, uc *usecase.LoanUseCase) *domain.Loan {
	t.Helper()

	loan, err := uc.CreateLoan(context.Background(), usecase.CreateLoanInput{
		SaleID:      "sale-1",
		CustomerID:  "customer-1",
		TotalAmount: decimal.NewFromInt(11000),
		DownPayment: decimal.NewFromInt(1000),
		MonthlyRate: decimal.RequireFromString("0.05"),
		Cadence:     domain.CadenceMonthly,
		Term:        6,
	})
	if err != nil {
		t.Fatalf("failed to create loan: %v", err)
	}

	return loan
}

func TestLoanUseCase_CreateLoan(t *testing.T) {
	uc, m := newLoanUseCase(stubClock{now: testStart})

	loan := createTestLoan(t, uc)

	if !loan.Principal.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("principal = %s, expected 10000 (total minus down payment)", loan.Principal)
	}
	if loan.Status != domain.LoanStatusActive {
		t.Errorf("status = %s, expected activo", loan.Status)
	}
	if len(loan.Installments) != 6 {
		t.Fatalf("expected 6 installments, got %d", len(loan.Installments))
	}
	if !loan.Payment.Equal(decimal.RequireFromString("1970.17")) {
		t.Errorf("payment = %s, expected 1970.17", loan.Payment)
	}

	for _, inst := range loan.Installments {
		if inst.ID == "" || inst.LoanID != loan.ID {
			t.Error("installments must be bound to the loan before persistence")
		}
	}

	stored, err := m.loanRepo.GetByID(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("loan was not persisted: %v", err)
	}
	if stored.ID != loan.ID {
		t.Error("stored loan does not match")
	}

	events := m.outboxRepo.EventsOfType(domain.EventTypeLoanCreated)
	if len(events) != 1 {
		t.Fatalf("expected one loan.created event, got %d", len(events))
	}
	if events[0].AggregateID != loan.ID {
		t.Error("event aggregate does not match loan")
	}

	if len(m.auditRepo.Logs) != 1 {
		t.Fatalf("expected one audit log, got %d", len(m.auditRepo.Logs))
	}
	if m.auditRepo.Logs[0].Actor != "system" {
		t.Errorf("actor = %s, expected system default", m.auditRepo.Logs[0].Actor)
	}
}

func TestLoanUseCase_CreateLoan_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(in *usecase.CreateLoanInput)
		expectedErr error
	}{
		{
			name:        "negative down payment",
			mutate:      func(in *usecase.CreateLoanInput) { in.DownPayment = decimal.NewFromInt(-1) },
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name: "down payment covers full price",
			mutate: func(in *usecase.CreateLoanInput) {
				in.DownPayment = in.TotalAmount
			},
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name:        "term too short",
			mutate:      func(in *usecase.CreateLoanInput) { in.Term = 1 },
			expectedErr: domain.ErrInvalidTerm,
		},
		{
			name:        "unknown cadence",
			mutate:      func(in *usecase.CreateLoanInput) { in.Cadence = domain.Cadence("daily") },
			expectedErr: domain.ErrInvalidCadence,
		},
		{
			name:        "negative rate",
			mutate:      func(in *usecase.CreateLoanInput) { in.MonthlyRate = decimal.RequireFromString("-0.05") },
			expectedErr: domain.ErrInvalidRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, m := newLoanUseCase(stubClock{now: testStart})

			input := usecase.CreateLoanInput{
				SaleID:      "sale-1",
				CustomerID:  "customer-1",
				TotalAmount: decimal.NewFromInt(11000),
				DownPayment: decimal.NewFromInt(1000),
				MonthlyRate: decimal.RequireFromString("0.05"),
				Cadence:     domain.CadenceMonthly,
				Term:        6,
			}
			tt.mutate(&input)

			_, err := uc.CreateLoan(context.Background(), input)
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}

			if len(m.outboxRepo.Events) != 0 {
				t.Error("rejected creation must not emit events")
			}
		})
	}
}

func TestLoanUseCase_ApplyPayment(t *testing.T) {
	uc, m := newLoanUseCase(stubClock{now: testStart})
	loan := createTestLoan(t, uc)

	output, err := uc.ApplyPayment(context.Background(), usecase.ApplyPaymentInput{
		LoanID:   loan.ID,
		Sequence: 1,
		Amount:   loan.Payment,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !output.Installment.Paid {
		t.Error("expected installment 1 to be paid")
	}

	expectedOutstanding := loan.Principal.Sub(loan.Installments[0].Principal)
	if !output.Outstanding.Equal(expectedOutstanding) {
		t.Errorf("outstanding = %s, expected %s", output.Outstanding, expectedOutstanding)
	}
	if output.Status != domain.LoanStatusActive {
		t.Errorf("status = %s, expected activo", output.Status)
	}

	events := m.outboxRepo.EventsOfType(domain.EventTypeLoanPaymentApplied)
	if len(events) != 1 {
		t.Fatalf("expected one payment event, got %d", len(events))
	}
	if len(m.outboxRepo.EventsOfType(domain.EventTypeLoanSettled)) != 0 {
		t.Error("partial progress must not emit a settled event")
	}
}

func TestLoanUseCase_ApplyPayment_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       func(loan *domain.Loan) usecase.ApplyPaymentInput
		setup       func(uc *usecase.LoanUseCase, loan *domain.Loan)
		expectedErr error
	}{
		{
			name: "loan not found",
			input: func(loan *domain.Loan) usecase.ApplyPaymentInput {
				return usecase.ApplyPaymentInput{LoanID: "missing", Sequence: 1, Amount: decimal.NewFromInt(100)}
			},
			setup:       func(uc *usecase.LoanUseCase, loan *domain.Loan) {},
			expectedErr: domain.ErrLoanNotFound,
		},
		{
			name: "unknown installment",
			input: func(loan *domain.Loan) usecase.ApplyPaymentInput {
				return usecase.ApplyPaymentInput{LoanID: loan.ID, Sequence: 42, Amount: decimal.NewFromInt(100)}
			},
			setup:       func(uc *usecase.LoanUseCase, loan *domain.Loan) {},
			expectedErr: domain.ErrUnknownInstallment,
		},
		{
			name: "overpay",
			input: func(loan *domain.Loan) usecase.ApplyPaymentInput {
				return usecase.ApplyPaymentInput{LoanID: loan.ID, Sequence: 1, Amount: decimal.NewFromInt(5000)}
			},
			setup:       func(uc *usecase.LoanUseCase, loan *domain.Loan) {},
			expectedErr: domain.ErrOverPayment,
		},
		{
			name: "cancelled loan",
			input: func(loan *domain.Loan) usecase.ApplyPaymentInput {
				return usecase.ApplyPaymentInput{LoanID: loan.ID, Sequence: 1, Amount: decimal.NewFromInt(100)}
			},
			setup: func(uc *usecase.LoanUseCase, loan *domain.Loan) {
				if _, err := uc.CancelLoan(context.Background(), loan.ID); err != nil {
					t.Fatalf("failed to cancel: %v", err)
				}
			},
			expectedErr: domain.ErrLoanClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newLoanUseCase(stubClock{now: testStart})
			loan := createTestLoan(t, uc)
			tt.setup(uc, loan)

			_, err := uc.ApplyPayment(context.Background(), tt.input(loan))
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestLoanUseCase_ApplyPayment_SettlesOnFinalInstallment(t *testing.T) {
	uc, m := newLoanUseCase(stubClock{now: testStart})
	loan := createTestLoan(t, uc)

	for seq := 1; seq <= loan.Term; seq++ {
		inst := loan.Installments[seq-1]
		output, err := uc.ApplyPayment(context.Background(), usecase.ApplyPaymentInput{
			LoanID:   loan.ID,
			Sequence: seq,
			Amount:   inst.Payment,
		})
		if err != nil {
			t.Fatalf("installment %d: unexpected error: %v", seq, err)
		}

		if seq == loan.Term && output.Status != domain.LoanStatusSettled {
			t.Errorf("final status = %s, expected liquidado", output.Status)
		}
	}

	settled := m.outboxRepo.EventsOfType(domain.EventTypeLoanSettled)
	if len(settled) != 1 {
		t.Fatalf("expected exactly one settled event, got %d", len(settled))
	}
	if settled[0].Payload["early_payoff"] != false {
		t.Error("settlement by schedule must not be flagged as early payoff")
	}
}

func TestLoanUseCase_ApplyPayment_UsesRetrier(t *testing.T) {
	uc, _ := newLoanUseCase(stubClock{now: testStart})
	retrier := &passthroughRetrier{}
	uc = uc.WithRetrier(retrier)

	loan := createTestLoan(t, uc)

	if _, err := uc.ApplyPayment(context.Background(), usecase.ApplyPaymentInput{
		LoanID:   loan.ID,
		Sequence: 1,
		Amount:   loan.Payment,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if retrier.calls != 1 {
		t.Errorf("retrier calls = %d, expected 1", retrier.calls)
	}

	// Domain errors must pass through the retrier unchanged so callers
	// can still match them with errors.Is.
	_, err := uc.ApplyPayment(context.Background(), usecase.ApplyPaymentInput{
		LoanID:   loan.ID,
		Sequence: 42,
		Amount:   decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrUnknownInstallment) {
		t.Errorf("expected ErrUnknownInstallment through retrier, got %v", err)
	}
}

func TestLoanUseCase_EarlyPayoff(t *testing.T) {
	uc, m := newLoanUseCase(stubClock{now: testStart})
	loan := createTestLoan(t, uc)

	// Pay the first installment, then settle the rest at once. The
	// payoff equals the unamortized principal.
	if _, err := uc.ApplyPayment(context.Background(), usecase.ApplyPaymentInput{
		LoanID:   loan.ID,
		Sequence: 1,
		Amount:   loan.Payment,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedPayoff := loan.Principal.Sub(loan.Installments[0].Principal)

	output, err := uc.EarlyPayoff(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !output.PayoffAmount.Equal(expectedPayoff) {
		t.Errorf("payoff = %s, expected %s", output.PayoffAmount, expectedPayoff)
	}
	if output.Loan.Status != domain.LoanStatusSettled {
		t.Errorf("status = %s, expected liquidado", output.Loan.Status)
	}

	settled := m.outboxRepo.EventsOfType(domain.EventTypeLoanSettled)
	if len(settled) != 1 {
		t.Fatalf("expected one settled event, got %d", len(settled))
	}
	if settled[0].Payload["early_payoff"] != true {
		t.Error("expected settled event flagged as early payoff")
	}

	if _, err := uc.EarlyPayoff(context.Background(), loan.ID); !errors.Is(err, domain.ErrLoanClosed) {
		t.Errorf("expected ErrLoanClosed on second payoff, got %v", err)
	}
}

func TestLoanUseCase_CancelLoan(t *testing.T) {
	uc, m := newLoanUseCase(stubClock{now: testStart})
	loan := createTestLoan(t, uc)

	cancelled, err := uc.CancelLoan(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.LoanStatusCancelled {
		t.Errorf("status = %s, expected cancelado", cancelled.Status)
	}

	if len(m.outboxRepo.EventsOfType(domain.EventTypeLoanCancelled)) != 1 {
		t.Error("expected a cancelled event")
	}

	if _, err := uc.CancelLoan(context.Background(), loan.ID); !errors.Is(err, domain.ErrLoanClosed) {
		t.Errorf("expected ErrLoanClosed on second cancel, got %v", err)
	}
}

func TestLoanUseCase_Outstanding_DerivesDelinquency(t *testing.T) {
	clock := &movableClock{now: testStart}
	uc, _ := newLoanUseCase(clock)
	loan := createTestLoan(t, uc)

	outstanding, status, err := uc.Outstanding(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outstanding.Equal(loan.Principal) {
		t.Errorf("outstanding = %s, expected full principal", outstanding)
	}
	if status != domain.LoanStatusActive {
		t.Errorf("status = %s, expected activo", status)
	}

	// First due date is one month after start; move past the grace
	// window and the same loan reads atrasado.
	clock.now = testStart.AddDate(0, 1, 4)

	_, status, err = uc.Outstanding(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != domain.LoanStatusDelinquent {
		t.Errorf("status = %s, expected atrasado", status)
	}
}

type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time { return c.now }

func TestLoanUseCase_ListLoans_Pagination(t *testing.T) {
	uc, _ := newLoanUseCase(stubClock{now: testStart})

	for i := 0; i < 3; i++ {
		createTestLoan(t, uc)
	}

	loans, err := uc.ListLoans(context.Background(), usecase.ListLoansInput{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loans) != 2 {
		t.Errorf("expected 2 loans, got %d", len(loans))
	}

	loans, err = uc.ListLoans(context.Background(), usecase.ListLoansInput{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loans) != 1 {
		t.Errorf("expected 1 loan at offset 2, got %d", len(loans))
	}
}
