package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/s2eweb/s2eweb/internal/httputil"
)

type SecurityConfig struct {
	BaseURL         string
	StorageEndpoint string
}

// securityHeaders sets a nonce-based CSP. The browser client needs
// 'wasm-unsafe-eval', and embedded movies load through object-src from the
// storage endpoint.
func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")

	storageSuffix := ""
	if cfg.StorageEndpoint != "" {
		storageSuffix = " " + cfg.StorageEndpoint
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, nonce := httputil.WithNonce(r)

			w.Header().Set("Referrer-Policy", "same-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			csp := fmt.Sprintf(
				"default-src 'self'; img-src 'self' data:; object-src 'self'%s; script-src 'self' 'nonce-%s' 'wasm-unsafe-eval'; style-src 'self' 'nonce-%s'; connect-src 'self'; form-action 'self'; frame-ancestors 'self';",
				storageSuffix, nonce, nonce,
			)
			w.Header().Set("Content-Security-Policy", csp)

			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
