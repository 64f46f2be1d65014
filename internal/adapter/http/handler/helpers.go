package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/credipos/engine/internal/adapter/http/dto"
	"github.com/credipos/engine/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes. Closed-ledger
// and overpay rejections are conflicts, not client formatting errors.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrReceivableNotFound),
		errors.Is(err, domain.ErrUnknownInstallment):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLoanClosed),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrOverPayment):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrSubCentAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidTerm),
		errors.Is(err, domain.ErrInvalidCadence),
		errors.Is(err, domain.ErrInvalidRate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrReconciliation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
