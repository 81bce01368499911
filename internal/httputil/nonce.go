package httputil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
)

type contextKey string

const nonceKey contextKey = "csp-nonce"

const nonceBytes = 16

func GenerateNonce() string {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		slog.Error("failed to generate CSP nonce", "error", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func ContextWithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey, nonce)
}

func NonceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(nonceKey).(string); ok {
		return v
	}
	return ""
}

// WithNonce attaches a fresh nonce to r and returns it with the request.
func WithNonce(r *http.Request) (*http.Request, string) {
	nonce := GenerateNonce()
	return r.WithContext(ContextWithNonce(r.Context(), nonce)), nonce
}
