package middleware

import (
	"net/http"

	pkghttp "github.com/BradenHooton/landing/pkg/http"
)

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env      string
	IPConfig *pkghttp.IPConfig
}

const (
	// The API only returns JSON and CSV, so nothing needs to load
	productionCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

	developmentCSP = "default-src 'self' http: https: ws:; " +
		"connect-src 'self' http: https: ws: wss:; " +
		"frame-ancestors 'self'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
)

// SecurityHeaders returns a middleware that adds security headers to all responses
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	production := config.Env == "production"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-site")
			h.Set("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=(), usb=()")

			if production {
				h.Set("Content-Security-Policy", productionCSP)
			} else {
				h.Set("Content-Security-Policy", developmentCSP)
			}

			// HSTS only over HTTPS, as seen directly or through a trusted proxy
			if production && pkghttp.IsSecureRequest(r, config.IPConfig) {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			// Session responses must never be cached by intermediaries
			if h.Get("Cache-Control") == "" {
				h.Set("Cache-Control", "no-store")
			}

			next.ServeHTTP(w, r)
		})
	}
}
