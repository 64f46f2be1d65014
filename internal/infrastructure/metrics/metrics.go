package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Loan metrics
	LoansCreated   prometheus.Counter
	LoansSettled   prometheus.Counter
	LoansCancelled prometheus.Counter
	EarlyPayoffs   prometheus.Counter

	// Payment metrics
	PaymentsApplied *prometheus.CounterVec
	PaymentErrors   *prometheus.CounterVec
	PaymentDuration prometheus.Histogram
	PaymentAmount   prometheus.Histogram

	// Receivable metrics
	ReceivablesCreated prometheus.Counter
	ReceivablesSettled prometheus.Counter

	// Portfolio metrics
	OutstandingPortfolio prometheus.Gauge
	DelinquentLoans      prometheus.Gauge
	ReceivablesPending   prometheus.Gauge

	// Database metrics
	DBQueries  *prometheus.CounterVec
	DBDuration *prometheus.HistogramVec
	DBErrors   *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		LoansCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credipos_loans_created_total",
			Help: "Total number of loans created",
		}),
		LoansSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credipos_loans_settled_total",
			Help: "Total number of loans fully settled",
		}),
		LoansCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credipos_loans_cancelled_total",
			Help: "Total number of loans administratively cancelled",
		}),
		EarlyPayoffs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credipos_early_payoffs_total",
			Help: "Total number of early payoffs",
		}),

		PaymentsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credipos_payments_applied_total",
				Help: "Total number of payments applied by ledger",
			},
			[]string{"ledger"},
		),
		PaymentErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credipos_payment_errors_total",
				Help: "Total number of rejected payments by error type",
			},
			[]string{"error_type"},
		),
		PaymentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credipos_payment_duration_seconds",
			Help:    "Duration of payment application",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credipos_payment_amount",
			Help:    "Payment amounts",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000},
		}),

		ReceivablesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credipos_receivables_created_total",
			Help: "Total number of receivables created",
		}),
		ReceivablesSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credipos_receivables_settled_total",
			Help: "Total number of receivables settled",
		}),

		OutstandingPortfolio: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "credipos_outstanding_portfolio",
			Help: "Sum of outstanding balances over non-terminal loans",
		}),
		DelinquentLoans: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "credipos_delinquent_loans",
			Help: "Number of loans currently delinquent",
		}),
		ReceivablesPending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "credipos_receivables_pending",
			Help: "Sum of balances due over open receivables",
		}),

		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credipos_db_queries_total",
				Help: "Total database queries by operation",
			},
			[]string{"operation"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credipos_db_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credipos_db_errors_total",
				Help: "Total database errors by operation",
			},
			[]string{"operation"},
		),

		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credipos_redis_operations_total",
				Help: "Total Redis operations by type",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credipos_redis_errors_total",
				Help: "Total Redis errors by operation",
			},
			[]string{"operation"},
		),
	}
}
