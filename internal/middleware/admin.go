package middleware

import (
	"context"
	"net/http"

	"wallet/internal/auth"
)

type AccessStore interface {
	GetAccess(ctx context.Context, userID string) (role string, blocked bool, err error)
}

// RequireAdmin re-checks the role against the store rather than trusting
// the token claim alone, so demotions and blocks take effect before the
// token expires.
func RequireAdmin(users AccessStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			role, blocked, err := users.GetAccess(r.Context(), userID)
			if err != nil {
				http.Error(w, "unable to verify admin", http.StatusInternalServerError)
				return
			}
			if blocked {
				http.Error(w, "account blocked", http.StatusForbidden)
				return
			}
			if role != auth.RoleAdmin {
				http.Error(w, "admin privileges required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
