package chi

import (
	"net/http"

	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware returns a middleware that admits at most rps requests
// per second with the given burst. Rejected requests get 429 and no body.
// If rps is zero, limiting is disabled (pass-through).
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	if burst <= 0 {
		burst = 1
	}
	// Shared by every route the middleware wraps.
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware returns a middleware allowing cross-origin calls from origins.
// If origins is empty, no CORS headers are emitted (pass-through).
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o != "" {
			allowed = append(allowed, o)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Requested-With"},
	})

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return c.Handler(next)
	}
}
