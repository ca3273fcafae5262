package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ecoportal/backend/config"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/ecoportal/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserStore is an in-memory UserStore with the same conditional-update
// semantics as the Mongo repository.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repositories.ErrEmailTaken
		}
	}
	f.nextID++
	user.ID = strings.Repeat("0", 4) + string(rune('a'+f.nextID))
	user.CreatedAt = time.Now()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) UpdateName(_ context.Context, id, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user.Name = name
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStore) SetRefreshToken(_ context.Context, id, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.RefreshToken = refreshToken
	return nil
}

func (f *fakeUserStore) RotateRefreshToken(_ context.Context, id, oldToken, newToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.RefreshToken != oldToken {
		return repositories.ErrRefreshTokenMismatch
	}
	user.RefreshToken = newToken
	return nil
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.LastLogin = &at
	return nil
}

// recordingAudit captures audit entries in memory.
type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	fail    error
}

func (a *recordingAudit) Record(_ context.Context, entry *models.AuditLog) error {
	if a.fail != nil {
		return a.fail
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingAudit) actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	actions := make([]models.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserStore, *recordingAudit) {
	t.Helper()
	jwtService, err := utils.NewJWTService(config.JWTConfig{
		AccessSecret:       "service-access-secret",
		RefreshSecret:      "service-refresh-secret",
		AccessTokenExpiry:  15,
		RefreshTokenExpiry: 7,
	})
	require.NoError(t, err)

	store := newFakeUserStore()
	audit := &recordingAudit{}
	return NewAuthService(store, audit, jwtService), store, audit
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		wantRole models.UserRole
	}{
		{name: "default role", role: "", wantRole: models.UserRoleUser},
		{name: "content proposer kept", role: "content_proposer", wantRole: models.UserRoleContentProposer},
		{name: "admin coerced to user", role: "admin", wantRole: models.UserRoleUser},
		{name: "unknown role coerced to user", role: "superuser", wantRole: models.UserRoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestAuthService(t)

			user, tokens, err := svc.Register(context.Background(), "Ana", "Ana@Example.com", "secret123", tt.role)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRole, user.Role)
			assert.Equal(t, "ana@example.com", user.Email)
			assert.True(t, user.IsActive)
			assert.NotEmpty(t, tokens.AccessToken)
			assert.NotEmpty(t, tokens.RefreshToken)
			assert.NotEqual(t, "secret123", user.PasswordHash)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Another Ana", "ana@example.com", "different", "")
	assert.ErrorIs(t, err, repositories.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		user, tokens, err := svc.Login(ctx, "ana@example.com", "secret123", RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotNil(t, user.LastLogin)
		assert.NotEmpty(t, tokens.RefreshToken)

		stored, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, tokens.RefreshToken, stored.RefreshToken)
	})

	t.Run("login replaces stored refresh token", func(t *testing.T) {
		_, first, err := svc.Login(ctx, "ana@example.com", "secret123", RequestMeta{})
		require.NoError(t, err)
		_, second, err := svc.Login(ctx, "ana@example.com", "secret123", RequestMeta{})
		require.NoError(t, err)

		stored, err := store.GetByID(ctx, registered.ID)
		require.NoError(t, err)
		assert.Equal(t, second.RefreshToken, stored.RefreshToken)
		assert.NotEqual(t, first.RefreshToken, stored.RefreshToken)
	})
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	blocked, _, err := svc.Register(ctx, "Bob", "bob@example.com", "secret123", "")
	require.NoError(t, err)
	store.users[blocked.ID].IsActive = false

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "unknown email", email: "nobody@example.com", password: "secret123"},
		{name: "wrong password", email: "ana@example.com", password: "wrong"},
		{name: "deactivated account", email: "bob@example.com", password: "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tt.email, tt.password, RequestMeta{})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAdminLoginAndLogoutAreAudited(t *testing.T) {
	svc, store, audit := newTestAuthService(t)
	ctx := context.Background()

	admin, _, err := svc.Register(ctx, "Root", "root@example.com", "secret123", "")
	require.NoError(t, err)
	store.users[admin.ID].Role = models.UserRoleAdmin

	_, _, err = svc.Login(ctx, "root@example.com", "secret123", RequestMeta{IPAddress: "10.0.0.1", UserAgent: "cli"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, admin.ID, RequestMeta{IPAddress: "10.0.0.1"}))

	assert.Equal(t, []models.AuditAction{models.ActionAdminLogin, models.ActionAdminLogout}, audit.actions())
	assert.Equal(t, "10.0.0.1", audit.entries[0].IPAddress)
}

func TestNonAdminLoginIsNotAudited(t *testing.T) {
	svc, _, audit := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "ana@example.com", "secret123", RequestMeta{})
	require.NoError(t, err)

	assert.Empty(t, audit.actions())
}

func TestRefreshRotation(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	stored, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, rotated.RefreshToken, stored.RefreshToken)

	// The superseded token must be rejected even though its signature and
	// expiry are still valid.
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// The rotated token keeps working.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejections(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, tokens.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("deactivated account", func(t *testing.T) {
		store.users[user.ID].IsActive = false
		defer func() { store.users[user.ID].IsActive = true }()

		_, err := svc.Refresh(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("after logout", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, user.ID, RequestMeta{}))
		_, err := svc.Refresh(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID, RequestMeta{}))
	require.NoError(t, svc.Logout(ctx, user.ID, RequestMeta{}))

	stored, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "wrong", "newsecret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("old password stops working after change", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret123", "newsecret"))

		_, _, err := svc.Login(ctx, "ana@example.com", "secret123", RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, _, err = svc.Login(ctx, "ana@example.com", "newsecret", RequestMeta{})
		assert.NoError(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123", "")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, "Ana Maria")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, user.Email, updated.Email)
}
