package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/portal-auth/internal/application/token"
	"github.com/portal-auth/internal/domain"
)

type contextKey string

const authKey contextKey = "auth"

// AuthInfo is what the auth middleware leaves in the request context.
type AuthInfo struct {
	Token    string
	Identity domain.Identity
}

// Auth returns middleware that rejects requests whose bearer token fails the
// full validation chain (revocation, signature, current-session match) and
// injects the token and identity into context.
func Auth(tokens token.Service, signer token.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, `{"error":"missing or invalid authorization header"}`, http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if !tokens.Validate(r.Context(), tokenStr) {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			// Validate already checked the signature; this parse only
			// recovers the identity for downstream handlers.
			id, _, err := signer.Verify(tokenStr)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), authKey, AuthInfo{Token: tokenStr, Identity: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthFromContext extracts the bearer token and identity from the request context.
func AuthFromContext(ctx context.Context) (AuthInfo, bool) {
	info, ok := ctx.Value(authKey).(AuthInfo)
	return info, ok
}
