package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ecoportal/backend/config"
	"github.com/ecoportal/backend/internal/models"
)

// BootstrapStore is the credential store capability the admin bootstrap
// needs.
type BootstrapStore interface {
	HasAdmin(ctx context.Context) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// BootstrapAdmin creates the first admin account if none exists. Idempotent:
// it checks for any admin-role record and creates one only when absent.
// Credentials must be supplied through configuration; when they are missing
// the bootstrap is skipped with a warning instead of falling back to a
// built-in password.
func BootstrapAdmin(ctx context.Context, store BootstrapStore, cfg config.AdminConfig) error {
	exists, err := store.HasAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}
	if exists {
		log.Println("Admin user already exists, skipping bootstrap")
		return nil
	}

	if cfg.Email == "" || cfg.Password == "" {
		log.Println("WARNING: no admin account exists and admin.email/admin.password are not configured; skipping admin bootstrap")
		return nil
	}

	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Name:         "System Administrator",
		Email:        strings.ToLower(cfg.Email),
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}

	if err := store.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("Bootstrap admin user created: %s", admin.Email)
	return nil
}
