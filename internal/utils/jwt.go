package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/ecoportal/backend/config"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/pkg/uuid"
	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures. Verify methods return one of these three
// (wrapped) and nothing else.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

// JWTService mints and verifies access/refresh token pairs. Access and
// refresh tokens are signed with distinct HMAC secrets so one can never be
// presented in place of the other.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	config        config.JWTConfig
}

// Claims carries the identity payload embedded in both token kinds.
type Claims struct {
	UserID string          `json:"uid"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg config.JWTConfig) (*JWTService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("JWT secrets cannot be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.AccessTokenExpiry <= 0 {
		cfg.AccessTokenExpiry = 15
	}
	if cfg.RefreshTokenExpiry <= 0 {
		cfg.RefreshTokenExpiry = 7
	}

	return &JWTService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		config:        cfg,
	}, nil
}

// AccessTokenTTL returns the access token lifetime.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return time.Duration(s.config.AccessTokenExpiry) * time.Minute
}

// Issue signs a new access/refresh pair for the payload. Pure: no
// persistence, no side effects beyond reading the clock.
func (s *JWTService) Issue(payload models.TokenPayload) (*models.TokenPair, error) {
	accessToken, err := s.sign(payload, s.accessSecret, s.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshTTL := time.Duration(s.config.RefreshTokenExpiry) * 24 * time.Hour
	refreshToken, err := s.sign(payload, s.refreshSecret, refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.AccessTokenTTL().Seconds()),
	}, nil
}

// VerifyAccess validates an access token and returns its payload.
func (s *JWTService) VerifyAccess(token string) (*models.TokenPayload, error) {
	return s.verify(token, s.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its payload.
func (s *JWTService) VerifyRefresh(token string) (*models.TokenPayload, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *JWTService) sign(payload models.TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: payload.UserID,
		Email:  payload.Email,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique ID makes every minted token distinct, so rotating a
			// refresh token always stores a new value.
			ID:        uuid.MustNew(),
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    s.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *JWTService) verify(tokenString string, secret []byte) (*models.TokenPayload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %w", ErrTokenSignature, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return &models.TokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
