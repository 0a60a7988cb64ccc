package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/landing/internal/metrics"
	"github.com/BradenHooton/landing/internal/ratelimit"
	pkghttp "github.com/BradenHooton/landing/pkg/http"
	"github.com/go-chi/httprate"
)

const (
	LimiterGlobal = "global"
	LimiterLogin  = "login"
)

// RateLimitConfig wires the fixed-window gate in front of every route
type RateLimitConfig struct {
	Limiter  *ratelimit.Limiter
	IPConfig *pkghttp.IPConfig
	Metrics  *metrics.Manager
	Logger   *slog.Logger
}

// RateLimit admits at most the limiter's MaxRequests per client IP in each
// window and answers 429 with Retry-After once a client is over.
func RateLimit(config RateLimitConfig) func(next http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := pkghttp.ExtractClientIP(r, config.IPConfig)
			d := config.Limiter.Allow(clientIP)

			if config.Metrics != nil {
				config.Metrics.GaugeTrackedKeys.Set(float64(config.Limiter.TrackedKeys()))
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				config.Metrics.RateLimited(LimiterGlobal)
				logger.Warn("rate limit exceeded",
					slog.String("ip", clientIP),
					slog.String("path", r.URL.Path),
					slog.Int64("retry_after", d.RetryAfterSeconds()))
				pkghttp.WriteTooManyRequests(w, d.RetryAfterSeconds())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoginRateLimit is a stricter sliding-window limit for the login endpoint,
// layered under the global gate.
func LoginRateLimit(requestsPerMinute int, ipConfig *pkghttp.IPConfig, m *metrics.Manager) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			m.RateLimited(LimiterLogin)
			retryAfter, err := strconv.ParseInt(w.Header().Get("Retry-After"), 10, 64)
			if err != nil || retryAfter <= 0 {
				retryAfter = 60
			}
			pkghttp.WriteTooManyRequests(w, retryAfter)
		}),
	)
}
