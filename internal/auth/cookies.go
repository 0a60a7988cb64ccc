package auth

import (
	"net/http"
	"strings"
	"time"

	pkghttp "github.com/BradenHooton/landing/pkg/http"
)

// CookiePolicy describes the session cookie. Secure is decided per request.
type CookiePolicy struct {
	Name     string
	Domain   string // empty string = current host only
	SameSite string // "strict", "lax" or "none"
	IPConfig *pkghttp.IPConfig
}

// Set writes the session cookie. It is http-only, same-site, scoped to "/"
// and secure whenever the request arrived over TLS.
func (p CookiePolicy) Set(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	secure := pkghttp.IsSecureRequest(r, p.IPConfig)
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    token,
		Path:     "/",
		Domain:   p.Domain,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: p.sameSite(secure),
	})
}

// Clear expires the session cookie with the same attributes it was set with.
func (p CookiePolicy) Clear(w http.ResponseWriter, r *http.Request) {
	secure := pkghttp.IsSecureRequest(r, p.IPConfig)
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: p.sameSite(secure),
	})
}

// Read returns the session token carried by the request, or "".
func (p CookiePolicy) Read(r *http.Request) string {
	cookie, err := r.Cookie(p.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// browsers drop SameSite=None cookies without Secure, so plain HTTP falls back to Lax
func (p CookiePolicy) sameSite(secure bool) http.SameSite {
	mode := parseSameSite(p.SameSite)
	if mode == http.SameSiteNoneMode && !secure {
		return http.SameSiteLaxMode
	}
	return mode
}

func parseSameSite(sameSite string) http.SameSite {
	switch strings.ToLower(sameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
