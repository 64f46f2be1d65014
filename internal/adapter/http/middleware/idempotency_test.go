package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func paymentRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/L1/payments", bytes.NewBufferString(`{"sequence":1,"amount":"1970.17"}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func TestIdempotencyMiddleware_ReplaysCachedResponse(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(`{"loan_id":"L1"}`), nil
		},
	}
	mw := NewIdempotencyMiddleware(store)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when a cached response exists")
	})).ServeHTTP(rr, paymentRequest("key-123"))

	if rr.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatal("expected X-Idempotency-Replay header")
	}
	if got := rr.Body.String(); got != `{"loan_id":"L1"}` {
		t.Fatalf("unexpected replayed body: %s", got)
	}
}

func TestIdempotencyMiddleware_StoresSuccessfulResponse(t *testing.T) {
	var stored []byte
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			stored = append([]byte(nil), response...)
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})).ServeHTTP(rr, paymentRequest("key-456"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if string(stored) != `{"ok":true}` {
		t.Fatalf("expected body to be stored, got %q", stored)
	}
}

func TestIdempotencyMiddleware_DoesNotCacheFailedResponses(t *testing.T) {
	var updated bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})).ServeHTTP(rr, paymentRequest("key-fail"))

	if updated {
		t.Fatal("error responses must not be cached")
	}
}

func TestIdempotencyMiddleware_InFlightMarkerPassesThrough(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte("processing"), nil
		},
	}
	mw := NewIdempotencyMiddleware(store)

	called := false
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, paymentRequest("key-inflight"))

	if !called {
		t.Fatal("expected handler to run while the first attempt is in flight")
	}
}

func TestIdempotencyMiddleware_SkipsReadsAndUnkeyedRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatal("store must not be consulted")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil),
		paymentRequest(""),
	} {
		called := false
		mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})).ServeHTTP(httptest.NewRecorder(), req)

		if !called {
			t.Fatalf("expected %s %s to pass through", req.Method, req.URL.Path)
		}
	}
}

func TestIdempotencyMiddleware_FailsClosedOnStoreError(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when the store errors")
	})).ServeHTTP(rr, paymentRequest("key-err"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
