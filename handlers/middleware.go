package handlers

import (
	"errors"
	"net/http"

	"github.com/icco/catalogo/lib/validation"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond rps (with the given burst) across all
// clients. A zero rps disables limiting.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				validation.WriteError(w, errors.New(validation.MsgRateLimited), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
