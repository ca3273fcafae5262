package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ecoportal/backend/config"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/ecoportal/backend/internal/services"
	"github.com/ecoportal/backend/internal/utils"
	"github.com/ecoportal/backend/pkg/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryUserStore backs the handler tests without MongoDB.
type memoryUserStore struct {
	users map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]*models.User)}
}

func (m *memoryUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memoryUserStore) Create(_ context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repositories.ErrEmailTaken
		}
	}
	user.ID = uuid.MustNew()
	user.CreatedAt = time.Now()
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memoryUserStore) UpdateName(_ context.Context, id, name string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user.Name = name
	clone := *user
	return &clone, nil
}

func (m *memoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *memoryUserStore) SetRefreshToken(_ context.Context, id, refreshToken string) error {
	user, ok := m.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.RefreshToken = refreshToken
	return nil
}

func (m *memoryUserStore) RotateRefreshToken(_ context.Context, id, oldToken, newToken string) error {
	user, ok := m.users[id]
	if !ok || user.RefreshToken != oldToken {
		return repositories.ErrRefreshTokenMismatch
	}
	user.RefreshToken = newToken
	return nil
}

func (m *memoryUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.LastLogin = &at
	return nil
}

type noopAudit struct{}

func (noopAudit) Record(_ context.Context, _ *models.AuditLog) error { return nil }

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	jwtService, err := utils.NewJWTService(config.JWTConfig{
		AccessSecret:       "handler-access-secret",
		RefreshSecret:      "handler-refresh-secret",
		AccessTokenExpiry:  15,
		RefreshTokenExpiry: 7,
	})
	require.NoError(t, err)

	authService := services.NewAuthService(newMemoryUserStore(), noopAudit{}, jwtService)
	return NewAuthHandler(authService)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (Response, map[string]interface{}) {
	t.Helper()
	var envelope Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	data, _ := envelope.Data.(map[string]interface{})
	return envelope, data
}

func TestRegisterEndpoint(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "secret123",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	envelope, data := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.Equal(t, "User registered successfully", envelope.Message)
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["refreshToken"])

	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	// The sanitized profile must not leak credentials.
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "refreshToken")
}

func TestRegisterEndpointValidation(t *testing.T) {
	h := newTestAuthHandler(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing email", body: map[string]string{"name": "Ana", "password": "secret123"}},
		{name: "malformed email", body: map[string]string{"name": "Ana", "email": "nope", "password": "secret123"}},
		{name: "short password", body: map[string]string{"name": "Ana", "email": "ana@example.com", "password": "abc"}},
		{name: "short name", body: map[string]string{"name": "A", "email": "ana@example.com", "password": "secret123"}},
		{name: "admin role rejected", body: map[string]string{"name": "Ana", "email": "ana@example.com", "password": "secret123", "role": "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Register, "/api/v1/auth/register", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			envelope, _ := decodeEnvelope(t, rec)
			assert.False(t, envelope.Success)
		})
	}
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	h := newTestAuthHandler(t)
	body := map[string]string{"name": "Ana", "email": "ana@example.com", "password": "secret123"}

	rec := postJSON(t, h.Register, "/api/v1/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Register, "/api/v1/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope, _ := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "User already exists with this email", envelope.Message)
}

// Register, fail a login with the wrong password, then succeed with the
// right one and walk away with a fresh token pair.
func TestRegisterThenLoginFlow(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope, _ := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "Invalid email or password", envelope.Message)

	rec = postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	envelope, data := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Login successful", envelope.Message)
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["refreshToken"])
}

func TestLoginEndpointUnknownEmail(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})

	// Same status and message as a wrong password: no account probing.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid email or password", envelope.Message)
}

func TestRefreshEndpoint(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, data := decodeEnvelope(t, rec)
	refreshToken, _ := data["refreshToken"].(string)
	require.NotEmpty(t, refreshToken)

	t.Run("valid token rotates", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh-token", map[string]string{
			"refreshToken": refreshToken,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		envelope, data := decodeEnvelope(t, rec)
		assert.True(t, envelope.Success)
		assert.NotEmpty(t, data["accessToken"])
		assert.NotEqual(t, refreshToken, data["refreshToken"])
	})

	t.Run("superseded token is rejected", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh-token", map[string]string{
			"refreshToken": refreshToken,
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope, _ := decodeEnvelope(t, rec)
		assert.Equal(t, "Invalid refresh token", envelope.Message)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh-token", map[string]string{})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope, _ := decodeEnvelope(t, rec)
		assert.Equal(t, "Refresh token is required", envelope.Message)
	})
}
