package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/guyr22/web-dev-final-project/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the request-scoped identity decoded from a verified
// access token. Derived, never persisted.
type Identity struct {
	ID       string
	Email    string
	Username string
}

type AuthMiddleware struct {
	tokens *auth.TokenService
}

func NewAuthMiddleware(tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth gates protected routes on a bearer access token. The
// check is stateless: it never consults the credential store, so an
// already-issued token stays valid until its own expiry.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "No token provided")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			unauthorized(w, "No token provided")
			return
		}

		claims, err := m.tokens.VerifyAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				unauthorized(w, "Token expired")
			} else {
				unauthorized(w, "Invalid token")
			}
			return
		}

		identity := Identity{
			ID:       claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity returns the authenticated identity for the request, or
// false when the session guard did not run.
func GetIdentity(r *http.Request) (Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(Identity)
	return identity, ok
}
