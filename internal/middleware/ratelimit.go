package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"gamepulse/internal/config"
	apierrors "gamepulse/internal/errors"
)

// RateLimit applies a process-wide token bucket to incoming requests.
// Disabled configurations return the handler unchanged.
func RateLimit(cfg config.RateLimitConfig, errorHandler *apierrors.ErrorHandler) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				errorHandler.HandleError(w, r, apierrors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
