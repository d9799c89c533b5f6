package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"casework/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the principal it
// carries.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Principal, error)
}

// Principal is the authenticated caller. Username is empty for pure service
// credentials (client_credentials grants carry no user).
type Principal struct {
	Username    string
	Authorities []string
}

// RequireAuth validates the bearer token and publishes the principal's
// username and authorities into the request context. Requests without a valid
// token are rejected before any domain logic runs.
func RequireAuth(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			principal, err := validator.ValidateToken(token)
			if err != nil {
				log.WarnContext(r.Context(), "token rejected",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err.Error(),
				)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if principal.Username != "" {
				ctx = requestcontext.WithUsername(ctx, principal.Username)
			}
			ctx = requestcontext.WithAuthorities(ctx, principal.Authorities)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthority rejects principals that do not hold the given authority.
// Matching is case-insensitive, consistent with the access gate bypass lists.
func RequireAuthority(authority string) func(http.Handler) http.Handler {
	want := strings.ToUpper(authority)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, held := range requestcontext.Authorities(r.Context()) {
				if strings.ToUpper(held) == want {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}
