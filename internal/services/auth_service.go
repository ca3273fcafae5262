package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/ecoportal/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// Lifecycle errors. Login failures are deliberately collapsed into
// ErrInvalidCredentials so callers cannot probe which accounts exist.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// UserStore is the credential store capability the lifecycle controller
// needs. *repositories.MongoUserRepository satisfies it; tests use an
// in-memory fake.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateName(ctx context.Context, id, name string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRefreshToken(ctx context.Context, id, refreshToken string) error
	RotateRefreshToken(ctx context.Context, id, oldToken, newToken string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// AuditRecorder appends an audit entry. Recording must complete before the
// enclosing request responds.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// RequestMeta carries the network provenance of the request for audit
// entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthService orchestrates register / login / refresh / logout /
// profile-update / password-change over the credential store and token
// service.
type AuthService struct {
	users      UserStore
	audit      AuditRecorder
	jwtService *utils.JWTService
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, audit AuditRecorder, jwtService *utils.JWTService) *AuthService {
	return &AuthService{
		users:      users,
		audit:      audit,
		jwtService: jwtService,
	}
}

// Register hashes the password, persists a new user and issues the first
// token pair. The role defaults to "user"; admin cannot be self-assigned.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*models.User, *models.TokenPair, error) {
	if role == "" {
		role = string(models.UserRoleUser)
	}
	if !models.IsValidUserRole(role) || models.UserRole(role) == models.UserRoleAdmin {
		role = string(models.UserRoleUser)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         models.UserRole(role),
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Login authenticates a user and returns a fresh token pair, overwriting
// any previously stored refresh token. Unknown email, wrong password, and
// a deactivated account all fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*models.User, *models.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}
	user.LastLogin = &now

	if user.Role == models.UserRoleAdmin {
		entry := &models.AuditLog{
			AdminID:    user.ID,
			Action:     models.ActionAdminLogin,
			TargetType: models.AuditTargetSystem,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			return nil, nil, fmt.Errorf("failed to record admin login: %w", err)
		}
	}

	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// stored token. A superseded token fails permanently, even when its
// signature is still valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	payload, err := s.jwtService.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	if user.RefreshToken != refreshToken {
		return nil, ErrInvalidRefreshToken
	}

	tokens, err := s.jwtService.Issue(models.TokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token pair: %w", err)
	}

	// Conditional update: concurrent refreshes with the same stale token
	// race here and only one wins.
	if err := s.users.RotateRefreshToken(ctx, user.ID, refreshToken, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenMismatch) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return tokens, nil
}

// Logout clears the stored refresh token, ending the session server-side.
// Idempotent: logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string, meta RequestMeta) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, ""); err != nil {
		return err
	}

	if user.Role == models.UserRoleAdmin {
		entry := &models.AuditLog{
			AdminID:    user.ID,
			Action:     models.ActionAdminLogout,
			TargetType: models.AuditTargetSystem,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("failed to record admin logout: %w", err)
		}
	}

	return nil
}

// UpdateProfile updates the display name. Email is immutable through this
// path so the login identity cannot be hijacked.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name string) (*models.User, error) {
	return s.users.UpdateName(ctx, userID, name)
}

// ChangePassword verifies the current password and replaces the hash.
// Outstanding refresh tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !VerifyPassword(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// issueAndStore mints a pair and overwrites the stored refresh token,
// invalidating any previous session.
func (s *AuthService) issueAndStore(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	tokens, err := s.jwtService.Issue(models.TokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token pair: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}
	user.RefreshToken = tokens.RefreshToken

	return tokens, nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against a bcrypt hash.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
