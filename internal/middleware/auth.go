package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/crucial707/booktrack/internal/auth"
	"github.com/crucial707/booktrack/internal/metrics"
	"github.com/google/uuid"
)

type key string

const UserIDKey key = "user_id"

// TokenVerifier resolves a bearer token to a user id.
// *auth.TokenService implements it.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Auth rejects requests without a valid bearer token and stores the
// token's user id in the request context for UserIDFromContext.
func Auth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				metrics.IncAuthFailure("missing")
				unauthorized(w, "no token provided")
				return
			}

			userID, err := tokens.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				metrics.IncAuthFailure("expired")
				unauthorized(w, "token expired")
				return
			case err != nil:
				metrics.IncAuthFailure("invalid")
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// UserIDFromContext returns the user id stored by Auth.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="booktrack"`)
	writeError(w, http.StatusUnauthorized, message)
}
