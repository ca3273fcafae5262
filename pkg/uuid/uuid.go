package uuid

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// New generates a new UUID v7 (time-ordered) string.
func New() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID v7: %w", err)
	}
	return id.String(), nil
}

// MustNew generates a new UUID v7 or panics.
func MustNew() string {
	id, err := New()
	if err != nil {
		panic(fmt.Sprintf("failed to generate UUID v7: %v", err))
	}
	return id
}

// Validate checks if a string is a valid UUID.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("UUID cannot be empty")
	}
	if _, err := uuid.FromString(id); err != nil {
		return fmt.Errorf("invalid UUID format: %w", err)
	}
	return nil
}
