package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecoportal/backend/config"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/ecoportal/backend/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserLoader struct {
	users map[string]*models.User
}

func (f *fakeUserLoader) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func newTestJWTService(t *testing.T) *utils.JWTService {
	t.Helper()
	svc, err := utils.NewJWTService(config.JWTConfig{
		AccessSecret:       "middleware-access-secret",
		RefreshSecret:      "middleware-refresh-secret",
		AccessTokenExpiry:  15,
		RefreshTokenExpiry: 7,
	})
	require.NoError(t, err)
	return svc
}

func issueAccessToken(t *testing.T, svc *utils.JWTService, user *models.User) string {
	t.Helper()
	pair, err := svc.Issue(models.TokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func issueExpiredToken(t *testing.T, user *models.User) string {
	t.Helper()
	claims := utils.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("middleware-access-secret"))
	require.NoError(t, err)
	return signed
}

func TestAuthenticate(t *testing.T) {
	jwtService := newTestJWTService(t)

	active := &models.User{
		ID:           "user-1",
		Email:        "active@example.com",
		Role:         models.UserRoleUser,
		IsActive:     true,
		PasswordHash: "hash",
		RefreshToken: "stored-refresh",
	}
	inactive := &models.User{
		ID:       "user-2",
		Email:    "blocked@example.com",
		Role:     models.UserRoleUser,
		IsActive: false,
	}
	loader := &fakeUserLoader{users: map[string]*models.User{
		active.ID:   active,
		inactive.ID: inactive,
	}}

	deleted := &models.User{ID: "user-3", Email: "gone@example.com", Role: models.UserRoleUser, IsActive: true}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token and active user",
			authHeader: "Bearer " + issueAccessToken(t, jwtService, active),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			authHeader: "Bearer " + issueExpiredToken(t, active),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "inactive user",
			authHeader: "Bearer " + issueAccessToken(t, jwtService, inactive),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "deleted user",
			authHeader: "Bearer " + issueAccessToken(t, jwtService, deleted),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser *models.User
			handler := Authenticate(jwtService, loader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserFromContext(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, gotUser)
				assert.Equal(t, active.ID, gotUser.ID)
				assert.Empty(t, gotUser.PasswordHash)
				assert.Empty(t, gotUser.RefreshToken)
			} else {
				assert.Nil(t, gotUser)
				assert.JSONEq(t, `{"success":false,"message":"Authentication required"}`, rec.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtService := newTestJWTService(t)

	active := &models.User{ID: "user-1", Email: "active@example.com", Role: models.UserRoleUser, IsActive: true}
	loader := &fakeUserLoader{users: map[string]*models.User{active.ID: active}}

	handler := OptionalAuth(jwtService, loader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := GetUserFromContext(r); user != nil {
			w.Header().Set("X-User-ID", user.ID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous request passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-User-ID"))
	})

	t.Run("invalid token still passes through anonymously", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.Header.Set("Authorization", "Bearer junk")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-User-ID"))
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccessToken(t, jwtService, active))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, active.ID, rec.Header().Get("X-User-ID"))
	})
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		allowed    []models.UserRole
		wantStatus int
	}{
		{
			name:       "admin allowed on admin route",
			user:       &models.User{ID: "a", Role: models.UserRoleAdmin},
			allowed:    []models.UserRole{models.UserRoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "user forbidden on admin route",
			user:       &models.User{ID: "u", Role: models.UserRoleUser},
			allowed:    []models.UserRole{models.UserRoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "content proposer forbidden on admin route",
			user:       &models.User{ID: "c", Role: models.UserRoleContentProposer},
			allowed:    []models.UserRole{models.UserRoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "either of two roles passes",
			user:       &models.User{ID: "c", Role: models.UserRoleContentProposer},
			allowed:    []models.UserRole{models.UserRoleContentProposer, models.UserRoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous gets 401 not 403",
			user:       nil,
			allowed:    []models.UserRole{models.UserRoleAdmin},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRoles(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.user != nil {
				ctx := context.WithValue(req.Context(), userContextKey, tt.user)
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
