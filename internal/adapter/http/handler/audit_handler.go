package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

// AuditHandler exposes the audit trail of a ledger resource.
type AuditHandler struct {
	auditRepo usecase.AuditRepository
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditRepo usecase.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// LoanTrail lists audit entries for a loan, newest first.
func (h *AuditHandler) LoanTrail(w http.ResponseWriter, r *http.Request) {
	h.trail(w, r, domain.AggregateTypeLoan)
}

// ReceivableTrail lists audit entries for a receivable, newest first.
func (h *AuditHandler) ReceivableTrail(w http.ResponseWriter, r *http.Request) {
	h.trail(w, r, domain.AggregateTypeReceivable)
}

func (h *AuditHandler) trail(w http.ResponseWriter, r *http.Request, resourceType string) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing resource ID", "")
		return
	}

	logs, err := h.auditRepo.GetByResourceID(r.Context(), resourceType, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load audit trail", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, logs)
}
