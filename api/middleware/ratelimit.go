package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/MonkyMars/gecho"
)

// getClientIP extracts the client address. RealIP has already applied the
// proxy headers by the time this runs.
func (mw *Middleware) getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware limits requests per client address per minute
func (mw *Middleware) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := mw.getClientIP(r)
			if !mw.rateLimit.AllowHTTP(r.Context(), clientIP) {
				mw.logger.Warn("Rate limit exceeded",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", r.URL.Path),
				)
				w.Header().Set("Retry-After", "60")
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", mw.cfg.RateLimit.HTTPPerMinute))
				gecho.TooManyRequests(w, gecho.WithMessage("Rate limit exceeded. Please try again later."), gecho.Send())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
