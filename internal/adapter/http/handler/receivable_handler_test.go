package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/credipos/engine/internal/adapter/http/dto"
	"github.com/credipos/engine/internal/usecase"
	"github.com/credipos/engine/internal/usecase/mocks"
)

func newReceivableRouter() *chi.Mux {
	uc := usecase.NewReceivableUseCase(usecase.ReceivableUseCaseConfig{
		TxManager:      mocks.NewMockTransactionManager(),
		ReceivableRepo: mocks.NewMockReceivableRepository(),
		OutboxRepo:     mocks.NewMockOutboxRepository(),
		AuditRepo:      mocks.NewMockAuditRepository(),
		IDGen:          mocks.NewMockIDGenerator(),
		Clock:          fixedClock{now: handlerNow},
	})

	h := NewReceivableHandler(uc)

	r := chi.NewRouter()
	r.Post("/receivables", h.Create)
	r.Get("/receivables/{id}", h.Get)
	r.Get("/receivables", h.List)
	r.Post("/receivables/{id}/payments", h.ApplyPayment)

	return r
}

func createReceivableViaAPI(t *testing.T, router *chi.Mux) dto.ReceivableResponse {
	t.Helper()

	body, _ := json.Marshal(dto.CreateReceivableRequest{
		SaleID:     "sale-1",
		CustomerID: "customer-1",
		Total:      decimal.NewFromInt(500),
	})

	req := httptest.NewRequest(http.MethodPost, "/receivables", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ReceivableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return resp
}

func payReceivable(t *testing.T, router *chi.Mux, id, amount string) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(dto.ReceivablePaymentRequest{
		Amount: decimal.RequireFromString(amount),
	})

	req := httptest.NewRequest(http.MethodPost, "/receivables/"+id+"/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReceivableHandler_Create(t *testing.T) {
	router := newReceivableRouter()

	resp := createReceivableViaAPI(t, router)

	if resp.Status != "pendiente" {
		t.Errorf("status = %s, expected pendiente", resp.Status)
	}
	if !resp.BalanceDue.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance due = %s, expected 500", resp.BalanceDue)
	}
}

func TestReceivableHandler_Create_InvalidAmount(t *testing.T) {
	router := newReceivableRouter()

	body, _ := json.Marshal(dto.CreateReceivableRequest{
		SaleID: "sale-1",
		Total:  decimal.Zero,
	})

	req := httptest.NewRequest(http.MethodPost, "/receivables", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReceivableHandler_PaymentLifecycle(t *testing.T) {
	router := newReceivableRouter()
	receivable := createReceivableViaAPI(t, router)

	// Partial payment.
	rec := payReceivable(t, router, receivable.ID, "200.00")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ReceivableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "parcial" {
		t.Errorf("status = %s, expected parcial", resp.Status)
	}
	if !resp.BalanceDue.Equal(decimal.NewFromInt(300)) {
		t.Errorf("balance due = %s, expected 300", resp.BalanceDue)
	}

	// Settling payment.
	rec = payReceivable(t, router, receivable.ID, "300.00")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "pagado" {
		t.Errorf("status = %s, expected pagado", resp.Status)
	}

	// Further payments conflict.
	rec = payReceivable(t, router, receivable.ID, "1.00")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on settled tab, got %d", rec.Code)
	}
}

func TestReceivableHandler_Payment_Overpay(t *testing.T) {
	router := newReceivableRouter()
	receivable := createReceivableViaAPI(t, router)

	rec := payReceivable(t, router, receivable.ID, "500.01")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overpay, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReceivableHandler_Payment_NotFound(t *testing.T) {
	router := newReceivableRouter()

	rec := payReceivable(t, router, "missing", "100.00")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
