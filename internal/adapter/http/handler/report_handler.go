package handler

import (
	"net/http"
	"time"

	"github.com/credipos/engine/internal/adapter/http/dto"
	"github.com/credipos/engine/internal/usecase"
)

// ReportHandler handles reporting HTTP requests. All endpoints are
// read-only.
type ReportHandler struct {
	reportingUC *usecase.ReportingUseCase
	clock       usecase.Clock
	graceDays   int
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportingUC *usecase.ReportingUseCase, clock usecase.Clock, graceDays int) *ReportHandler {
	if clock == nil {
		clock = usecase.SystemClock{}
	}

	return &ReportHandler{reportingUC: reportingUC, clock: clock, graceDays: graceDays}
}

// Portfolio returns the full rollup. The interest-collection window
// defaults to the current calendar month.
func (h *ReportHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date", err.Error())
			return
		}
		from = parsed
	}

	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date", err.Error())
			return
		}
		to = parsed
	}

	report, err := h.reportingUC.PortfolioReport(r.Context(), usecase.PortfolioReportInput{From: from, To: to})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromDomain(report))
}

// Delinquent returns the loans that are atrasado right now.
func (h *ReportHandler) Delinquent(w http.ResponseWriter, r *http.Request) {
	loans, err := h.reportingUC.DelinquentLoans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list delinquent loans", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoansFromDomain(loans, h.clock.Now(), h.graceDays))
}
