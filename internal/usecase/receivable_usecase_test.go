package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
	"github.com/credipos/engine/internal/usecase/mocks"
)

type receivableMocks struct {
	receivableRepo *mocks.MockReceivableRepository
	outboxRepo     *mocks.MockOutboxRepository
	auditRepo      *mocks.MockAuditRepository
}

func newReceivableUseCase() (*usecase.ReceivableUseCase, *receivableMocks) {
	m := &receivableMocks{
		receivableRepo: mocks.NewMockReceivableRepository(),
		outboxRepo:     mocks.NewMockOutboxRepository(),
		auditRepo:      mocks.NewMockAuditRepository(),
	}

	uc := usecase.NewReceivableUseCase(usecase.ReceivableUseCaseConfig{
		TxManager:      mocks.NewMockTransactionManager(),
		ReceivableRepo: m.receivableRepo,
		OutboxRepo:     m.outboxRepo,
		AuditRepo:      m.auditRepo,
		IDGen:          mocks.NewMockIDGenerator(),
		Clock:          stubClock{now: testStart},
	})

	return uc, m
}

func createTestReceivable(t *testing.T, uc *usecase.ReceivableUseCase) *domain.Receivable {
	t.Helper()

	receivable, err := uc.CreateReceivable(context.Background(), usecase.CreateReceivableInput{
		SaleID:     "sale-1",
		CustomerID: "customer-1",
		Total:      decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("failed to create receivable: %v", err)
	}

	return receivable
}

func TestReceivableUseCase_CreateReceivable(t *testing.T) {
	uc, m := newReceivableUseCase()

	receivable := createTestReceivable(t, uc)

	if receivable.Status != domain.ReceivableStatusPending {
		t.Errorf("status = %s, expected pendiente", receivable.Status)
	}
	if !receivable.BalanceDue().Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance due = %s, expected 500", receivable.BalanceDue())
	}

	if len(m.outboxRepo.EventsOfType(domain.EventTypeReceivableCreated)) != 1 {
		t.Error("expected a receivable.created event")
	}
	if len(m.auditRepo.Logs) != 1 {
		t.Errorf("expected one audit log, got %d", len(m.auditRepo.Logs))
	}
}

func TestReceivableUseCase_CreateReceivable_Validation(t *testing.T) {
	uc, _ := newReceivableUseCase()

	_, err := uc.CreateReceivable(context.Background(), usecase.CreateReceivableInput{
		SaleID:     "sale-1",
		CustomerID: "customer-1",
		Total:      decimal.Zero,
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestReceivableUseCase_ApplyPayment_RunningTab(t *testing.T) {
	uc, m := newReceivableUseCase()
	receivable := createTestReceivable(t, uc)

	// Partial payment moves the tab to parcial.
	output, err := uc.ApplyPayment(context.Background(), receivable.ID, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Settled {
		t.Error("partial payment must not settle")
	}
	if !output.BalanceDue.Equal(decimal.NewFromInt(300)) {
		t.Errorf("balance due = %s, expected 300", output.BalanceDue)
	}
	if output.Receivable.Status != domain.ReceivableStatusPartial {
		t.Errorf("status = %s, expected parcial", output.Receivable.Status)
	}

	// The remainder settles it.
	output, err = uc.ApplyPayment(context.Background(), receivable.ID, decimal.NewFromInt(300))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !output.Settled {
		t.Error("expected tab to settle")
	}
	if output.Receivable.Status != domain.ReceivableStatusPaid {
		t.Errorf("status = %s, expected pagado", output.Receivable.Status)
	}

	if len(m.outboxRepo.EventsOfType(domain.EventTypeReceivablePaymentApplied)) != 2 {
		t.Error("expected two payment events")
	}
	if len(m.outboxRepo.EventsOfType(domain.EventTypeReceivableSettled)) != 1 {
		t.Error("expected one settled event")
	}

	// Once pagado, further payments are rejected.
	_, err = uc.ApplyPayment(context.Background(), receivable.ID, decimal.NewFromInt(1))
	if !errors.Is(err, domain.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
}

func TestReceivableUseCase_ApplyPayment_Errors(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		receivable  func(uc *usecase.ReceivableUseCase) string
		expectedErr error
	}{
		{
			name:   "not found",
			amount: decimal.NewFromInt(100),
			receivable: func(uc *usecase.ReceivableUseCase) string {
				return "missing"
			},
			expectedErr: domain.ErrReceivableNotFound,
		},
		{
			name:   "overpay has zero tolerance",
			amount: decimal.RequireFromString("500.01"),
			receivable: func(uc *usecase.ReceivableUseCase) string {
				return createTestReceivable(t, uc).ID
			},
			expectedErr: domain.ErrOverPayment,
		},
		{
			name:   "zero amount",
			amount: decimal.Zero,
			receivable: func(uc *usecase.ReceivableUseCase) string {
				return createTestReceivable(t, uc).ID
			},
			expectedErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, m := newReceivableUseCase()
			id := tt.receivable(uc)
			eventsBefore := len(m.outboxRepo.Events)

			_, err := uc.ApplyPayment(context.Background(), id, tt.amount)
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}

			if len(m.outboxRepo.Events) != eventsBefore {
				t.Error("rejected payment must not emit events")
			}
		})
	}
}

func TestReceivableUseCase_WithRetrier(t *testing.T) {
	uc, _ := newReceivableUseCase()
	retrier := &passthroughRetrier{}
	uc = uc.WithRetrier(retrier)

	receivable := createTestReceivable(t, uc)

	if _, err := uc.ApplyPayment(context.Background(), receivable.ID, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if retrier.calls != 1 {
		t.Errorf("retrier calls = %d, expected 1", retrier.calls)
	}
}

func TestReceivableUseCase_ListReceivables(t *testing.T) {
	uc, _ := newReceivableUseCase()

	for i := 0; i < 3; i++ {
		createTestReceivable(t, uc)
	}

	receivables, err := uc.ListReceivables(context.Background(), usecase.ListReceivablesInput{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(receivables) != 2 {
		t.Errorf("expected 2 receivables, got %d", len(receivables))
	}
}
