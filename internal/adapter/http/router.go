package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/credipos/engine/internal/adapter/http/handler"
	"github.com/credipos/engine/internal/adapter/http/middleware"
	"github.com/credipos/engine/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger            zerolog.Logger
	LoanHandler       *handler.LoanHandler
	ReceivableHandler *handler.ReceivableHandler
	ReportHandler     *handler.ReportHandler
	AuditHandler      *handler.AuditHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(middleware.Actor)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Cashier retries must not double-apply payments.
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", cfg.LoanHandler.Create)
			r.Get("/", cfg.LoanHandler.List)
			r.Get("/{id}", cfg.LoanHandler.Get)
			r.Get("/{id}/outstanding", cfg.LoanHandler.Outstanding)
			r.Post("/{id}/payments", cfg.LoanHandler.ApplyPayment)
			r.Post("/{id}/payoff", cfg.LoanHandler.Payoff)
			r.Post("/{id}/cancel", cfg.LoanHandler.Cancel)
			if cfg.AuditHandler != nil {
				r.Get("/{id}/audit", cfg.AuditHandler.LoanTrail)
			}
		})

		r.Route("/receivables", func(r chi.Router) {
			r.Post("/", cfg.ReceivableHandler.Create)
			r.Get("/", cfg.ReceivableHandler.List)
			r.Get("/{id}", cfg.ReceivableHandler.Get)
			r.Post("/{id}/payments", cfg.ReceivableHandler.ApplyPayment)
			if cfg.AuditHandler != nil {
				r.Get("/{id}/audit", cfg.AuditHandler.ReceivableTrail)
			}
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/portfolio", cfg.ReportHandler.Portfolio)
			r.Get("/delinquent", cfg.ReportHandler.Delinquent)
		})
	})

	return r
}
