package middleware

import (
	"net/http"

	"github.com/credipos/engine/internal/usecase"
)

// ActorHeader carries the operator identifier set by the POS frontend.
const ActorHeader = "X-Actor-ID"

// Actor copies the operator identifier from the request header into the
// context so audit entries can record who rang up the payment.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(ActorHeader); actor != "" {
			r = r.WithContext(usecase.WithActor(r.Context(), actor))
		}

		next.ServeHTTP(w, r)
	})
}
