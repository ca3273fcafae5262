package utils

import (
	"testing"
	"time"

	"github.com/ecoportal/backend/config"
	"github.com/ecoportal/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:       "access-secret-for-tests",
		RefreshSecret:      "refresh-secret-for-tests",
		AccessTokenExpiry:  15,
		RefreshTokenExpiry: 7,
		Issuer:             "ecoportal-test",
	}
}

func testPayload() models.TokenPayload {
	return models.TokenPayload{
		UserID: "0190a8b0-0000-7000-8000-000000000001",
		Email:  "user@example.com",
		Role:   models.UserRoleUser,
	}
}

func TestNewJWTService(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.JWTConfig)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(c *config.JWTConfig) {},
		},
		{
			name:    "empty access secret",
			mutate:  func(c *config.JWTConfig) { c.AccessSecret = "" },
			wantErr: true,
		},
		{
			name:    "empty refresh secret",
			mutate:  func(c *config.JWTConfig) { c.RefreshSecret = "" },
			wantErr: true,
		},
		{
			name:    "identical secrets",
			mutate:  func(c *config.JWTConfig) { c.RefreshSecret = c.AccessSecret },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testJWTConfig()
			tt.mutate(&cfg)

			svc, err := NewJWTService(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewJWTService(testJWTConfig())
	require.NoError(t, err)

	pair, err := svc.Issue(testPayload())
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testPayload(), *access)

	refresh, err := svc.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, testPayload(), *refresh)
}

func TestVerifyRejectsCrossTokenUse(t *testing.T) {
	svc, err := NewJWTService(testJWTConfig())
	require.NoError(t, err)

	pair, err := svc.Issue(testPayload())
	require.NoError(t, err)

	// A refresh token must never pass access verification, and vice versa.
	_, err = svc.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = svc.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestVerifyExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	// Sign an already-expired token with the real access secret.
	claims := Claims{
		UserID: testPayload().UserID,
		Email:  testPayload().Email,
		Role:   testPayload().Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.AccessSecret))
	require.NoError(t, err)

	_, err = svc.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyGarbageToken(t *testing.T) {
	svc, err := NewJWTService(testJWTConfig())
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	svc, err := NewJWTService(testJWTConfig())
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.AccessSecret = "a-completely-different-secret"
	other, err := NewJWTService(otherCfg)
	require.NoError(t, err)

	pair, err := other.Issue(testPayload())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenSignature)
}
