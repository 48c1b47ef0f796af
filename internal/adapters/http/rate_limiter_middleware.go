package http

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"judokit/internal/core/ports"
)

// RateLimiterMiddleware limits requests per client IP.
type RateLimiterMiddleware struct {
	limiter ports.RateLimiter
	limit   int
	window  time.Duration
	logger  *slog.Logger
}

func NewRateLimiterMiddleware(limiter ports.RateLimiter, limit int, window time.Duration, logger *slog.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

func (m *RateLimiterMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RealIP may already have stripped the port.
			ip = r.RemoteAddr
		}

		allowed, err := m.limiter.IsAllowed(r.Context(), ip, m.limit, m.window)
		if err != nil {
			// Fail open: a limiter outage must not take checkout down.
			m.logger.Error("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			writeJSONError(w, "too many requests", http.StatusTooManyRequests, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}
