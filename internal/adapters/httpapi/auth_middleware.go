package httpapi

import (
	"net/http"
	"strings"

	"github.com/gatepass-registry/gatepass/internal/platform/auth/sessiontoken"
)

// NewAuthMiddleware enforces Authorization: Bearer <token> and stores the verified
// claims in the request context.
func NewAuthMiddleware(tokens *sessiontoken.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, status, msg := authenticate(tokens, r)
			if status != 0 {
				writeMessage(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), claims)))
		})
	}
}

// authenticate returns a non-zero status when the request carries no valid token.
func authenticate(tokens *sessiontoken.Issuer, r *http.Request) (sessiontoken.Claims, int, string) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return sessiontoken.Claims{}, http.StatusUnauthorized, "No token, authorization denied"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return sessiontoken.Claims{}, http.StatusUnauthorized, "Malformed authorization header"
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if raw == "" {
		return sessiontoken.Claims{}, http.StatusUnauthorized, "No token, authorization denied"
	}
	claims, err := tokens.Verify(raw)
	if err != nil {
		return sessiontoken.Claims{}, http.StatusUnauthorized, "Token is not valid"
	}
	return claims, 0, ""
}
