package middleware

import (
	"net/http"

	"github.com/ecoportal/backend/internal/models"
)

// RequireRoles is the authorization gate. It must be composed after
// Authenticate: no identity yields 401, an identity outside the allow-list
// yields 403. Pure predicate, no side effects.
func RequireRoles(roles ...models.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r)
			if user == nil {
				unauthenticated(w)
				return
			}

			if _, ok := allowed[user.Role]; !ok {
				respondWithJSON(w, http.StatusForbidden, errorResponse{
					Success: false,
					Message: "You don't have permission to perform this action",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
