package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/utils"
)

// Key for the authenticated user in the request context.
type contextKey int

const userContextKey contextKey = 0

// UserLoader loads the account referenced by a verified token.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// unauthenticated masks which verification step failed. Missing header,
// bad signature, expiry, and a deleted or deactivated account all read
// identically to the client.
func unauthenticated(w http.ResponseWriter) {
	respondWithJSON(w, http.StatusUnauthorized, errorResponse{
		Success: false,
		Message: "Authentication required",
	})
}

// resolveUser extracts the bearer token, verifies it and loads the account.
// Returns nil when any step fails.
func resolveUser(r *http.Request, jwtService *utils.JWTService, users UserLoader) *models.User {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	payload, err := jwtService.VerifyAccess(parts[1])
	if err != nil {
		return nil
	}

	user, err := users.GetByID(r.Context(), payload.UserID)
	if err != nil || !user.IsActive {
		return nil
	}

	// Strip credentials before the user travels through handler code.
	user.PasswordHash = ""
	user.RefreshToken = ""
	return user
}

// Authenticate is the mandatory authentication gate: requests without a
// valid bearer token referencing an active account are rejected.
func Authenticate(jwtService *utils.JWTService, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, jwtService, users)
			if user == nil {
				unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is presented and
// proceeds anonymously otherwise. Used by publicly browsable listings that
// personalize output for logged-in users.
func OptionalAuth(jwtService *utils.JWTService, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := resolveUser(r, jwtService, users); user != nil {
				ctx := context.WithValue(r.Context(), userContextKey, user)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the authenticated user, or nil for anonymous
// requests.
func GetUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
