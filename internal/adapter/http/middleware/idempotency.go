package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/credipos/engine/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header cashier clients send so a
	// retried payment is served the original response instead of being
	// applied twice.
	IdempotencyKeyHeader = "Idempotency-Key"

	idempotencyTTL = 24 * time.Hour
)

// IdempotencyMiddleware replays cached responses for repeated mutating
// requests carrying the same key.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store}
}

// Wrap wraps an http.Handler with idempotency checking. Requests
// without a key pass through untouched.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		seen, cached, err := m.store.CheckAndSet(r.Context(), key, nil, idempotencyTTL)
		if err != nil {
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		// "processing" marks an in-flight first attempt; let the
		// duplicate run rather than replay an empty body.
		if seen && cached != nil && string(cached) != "processing" {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Replay", "true")
			w.Write(cached)
			return
		}

		rec := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(rec, r)

		// Only 2xx responses are cached; failures are never replayed.
		if rec.statusCode >= 200 && rec.statusCode < 300 {
			m.store.Update(r.Context(), key, rec.body.Bytes(), idempotencyTTL)
		}
	})
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
