package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/credipos/engine/internal/adapter/http/dto"
	"github.com/credipos/engine/internal/usecase"
)

// ReceivableHandler handles receivable-related HTTP requests.
type ReceivableHandler struct {
	receivableUC *usecase.ReceivableUseCase
}

// NewReceivableHandler creates a new ReceivableHandler.
func NewReceivableHandler(receivableUC *usecase.ReceivableUseCase) *ReceivableHandler {
	return &ReceivableHandler{receivableUC: receivableUC}
}

// Create opens a running tab for an open-credit sale.
func (h *ReceivableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReceivableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	receivable, err := h.receivableUC.CreateReceivable(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create receivable", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReceivableFromDomain(receivable))
}

// Get retrieves a receivable.
func (h *ReceivableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing receivable ID", "")
		return
	}

	receivable, err := h.receivableUC.GetReceivable(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get receivable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivableFromDomain(receivable))
}

// List lists receivables.
func (h *ReceivableHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	receivables, err := h.receivableUC.ListReceivables(r.Context(), usecase.ListReceivablesInput{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list receivables", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivablesFromDomain(receivables))
}

// ApplyPayment records a payment against the running balance.
func (h *ReceivableHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing receivable ID", "")
		return
	}

	var req dto.ReceivablePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	output, err := h.receivableUC.ApplyPayment(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivableFromDomain(output.Receivable))
}
