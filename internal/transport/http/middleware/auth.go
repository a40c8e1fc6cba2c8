package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/otp-file-gateway/internal/domain"
)

type contextKey string

const OwnerKey contextKey = "owner"

// Authenticator resolves a bearer token to the access token record it names.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.AccessToken, error)
}

// Auth returns middleware that checks the Bearer token against the token
// ledger and injects the token record into context.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			at, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				slog.Error("token lookup failed", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			ctx := context.WithValue(r.Context(), OwnerKey, at)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the access token the request was authorised with.
func OwnerFromContext(ctx context.Context) (*domain.AccessToken, bool) {
	at, ok := ctx.Value(OwnerKey).(*domain.AccessToken)
	return at, ok
}
