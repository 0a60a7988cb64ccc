package http_test

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/landing/pkg/http"
	"github.com/stretchr/testify/assert"
)

var proxyConfig = &pkghttp.IPConfig{
	TrustedProxies: []string{"10.0.0.0/8", "127.0.0.1/32", "fd00::/8"},
}

func TestExtractClientIP_DirectConnection_IgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.Header.Set("X-Real-IP", "192.168.1.1")

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_TrustedProxy_UsesXForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "203.0.113.42, 10.0.0.5")

	assert.Equal(t, "203.0.113.42", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_TrustedProxy_SkipsInvalidEntries(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "garbage, 198.51.100.7")

	assert.Equal(t, "198.51.100.7", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_TrustedProxy_IgnoresClientSuppliedHops(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "198.51.100.77, 203.0.113.7")

	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_TrustedProxy_SkipsProxyChain(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.7, 10.1.1.1, 127.0.0.1")

	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_TrustedProxy_MultipleHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Add("X-Forwarded-For", "1.2.3.4")
	req.Header.Add("X-Forwarded-For", "203.0.113.7")

	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_TrustedProxy_AllHopsTrusted(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "10.2.2.2, 10.1.1.1")

	assert.Equal(t, "10.2.2.2", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_TrustedProxy_FallsBackToXRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:8080"
	req.Header.Set("X-Real-IP", "198.51.100.9")

	assert.Equal(t, "198.51.100.9", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_IPv6(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[fd00::1]:443"
	req.Header.Set("X-Forwarded-For", "2001:db8::1")

	assert.Equal(t, "2001:db8::1", pkghttp.ExtractClientIP(req, proxyConfig))
}

func TestExtractClientIP_NoConfig(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.42")

	assert.Equal(t, "10.0.0.5", pkghttp.ExtractClientIP(req, nil))
}

func TestExtractClientIP_RemoteAddrWithoutPort(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10"

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, nil))
}

func TestIsSecureRequest(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		tls        bool
		proto      string
		want       bool
	}{
		{name: "direct TLS", remoteAddr: "203.0.113.10:1", tls: true, want: true},
		{name: "plain http", remoteAddr: "203.0.113.10:1", want: false},
		{name: "trusted proxy https", remoteAddr: "10.0.0.5:1", proto: "https", want: true},
		{name: "trusted proxy chained", remoteAddr: "10.0.0.5:1", proto: "HTTPS, http", want: true},
		{name: "trusted proxy http", remoteAddr: "10.0.0.5:1", proto: "http", want: false},
		{name: "untrusted peer claims https", remoteAddr: "203.0.113.10:1", proto: "https", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			assert.Equal(t, tt.want, pkghttp.IsSecureRequest(req, proxyConfig))
		})
	}
}
