package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/credipos/engine/internal/adapter/http/dto"
	"github.com/credipos/engine/internal/usecase"
)

// LoanHandler handles loan-related HTTP requests.
type LoanHandler struct {
	loanUC    *usecase.LoanUseCase
	clock     usecase.Clock
	graceDays int
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC *usecase.LoanUseCase, clock usecase.Clock, graceDays int) *LoanHandler {
	if clock == nil {
		clock = usecase.SystemClock{}
	}

	return &LoanHandler{loanUC: loanUC, clock: clock, graceDays: graceDays}
}

// Create creates a loan with its full amortization schedule.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.CreateLoan(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create loan", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan, h.now(), h.graceDays))
}

// Get retrieves a loan with its schedule.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	loan, err := h.loanUC.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan, h.now(), h.graceDays))
}

// List lists loans.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	loans, err := h.loanUC.ListLoans(r.Context(), usecase.ListLoansInput{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list loans", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoansFromDomain(loans, h.now(), h.graceDays))
}

// ApplyPayment applies a payment to one installment.
func (h *LoanHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	var req dto.ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	output, err := h.loanUC.ApplyPayment(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentResponse{
		LoanID:      output.Loan.ID,
		Installment: dto.InstallmentFromDomain(output.Installment),
		Outstanding: output.Outstanding,
		Status:      string(output.Status),
	})
}

// Payoff settles a loan early in a single payment.
func (h *LoanHandler) Payoff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	output, err := h.loanUC.EarlyPayoff(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to pay off loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PayoffResponse{
		LoanID:       output.Loan.ID,
		PayoffAmount: output.PayoffAmount,
		Status:       string(output.Loan.Status),
	})
}

// Cancel administratively cancels a loan.
func (h *LoanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	loan, err := h.loanUC.CancelLoan(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan, h.now(), h.graceDays))
}

// Outstanding returns the live balance and derived status.
func (h *LoanHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	outstanding, status, err := h.loanUC.Outstanding(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get outstanding balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OutstandingResponse{
		LoanID:      id,
		Outstanding: outstanding,
		Status:      string(status),
	})
}

func (h *LoanHandler) now() time.Time {
	return h.clock.Now()
}
