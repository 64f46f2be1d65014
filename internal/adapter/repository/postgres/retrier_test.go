package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func newFastRetrier() *Retrier {
	r := NewRetrier()
	r.maxRetries = 2
	r.initialInterval = 1 * time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	r.maxElapsedTime = 20 * time.Millisecond
	return r
}

func TestRetrierRecoversFromDeadlock(t *testing.T) {
	r := newFastRetrier()

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := newFastRetrier()

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != r.maxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", r.maxRetries+1, attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := newFastRetrier()

	attempts := 0
	permanentErr := errors.New("constraint violation")
	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, true},
		{"serialization failure", &pgconn.PgError{Code: pgErrSerializationFailure}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, expected %v", tt.err, got, tt.want)
			}
		})
	}
}
