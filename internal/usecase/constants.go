package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultGraceDays is the delinquency grace period when the caller's
	// configuration does not supply one
	DefaultGraceDays = 3

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ReportCacheTTL is how long a portfolio report snapshot stays valid
	ReportCacheTTL = 5 * time.Minute
)
