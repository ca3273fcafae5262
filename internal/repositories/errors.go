package repositories

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Common repository errors
var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = mongo.ErrNoDocuments

	// ErrDuplicateKey is returned when trying to insert a duplicate document
	ErrDuplicateKey = errors.New("duplicate key error")
)

// Domain-specific "not found" errors. These wrap mongo.ErrNoDocuments so
// handlers can check either the domain error or the generic one.
var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrCampaignNotFound is returned when a campaign is not found
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrResourceNotFound is returned when a resource is not found
	ErrResourceNotFound = errors.New("resource not found")

	// ErrAgencyNotFound is returned when an agency is not found
	ErrAgencyNotFound = errors.New("agency not found")

	// ErrEmailTaken is returned when registering with an email that already exists
	ErrEmailTaken = errors.New("user already exists with this email")

	// ErrRefreshTokenMismatch is returned when rotating a refresh token that
	// does not match the stored one (superseded-token reuse)
	ErrRefreshTokenMismatch = errors.New("refresh token does not match stored token")
)

// IsNotFound checks if an error is a not found error. It matches both the
// generic mongo sentinel and the domain-specific not-found errors, so callers
// get the same answer whether the error comes out of a repository wrapped or
// bare.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrAgencyNotFound)
}

// IsDuplicateKey checks if an error is a duplicate key error
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsDuplicateKeyError(err) || errors.Is(err, ErrDuplicateKey)
}

// WrapNotFound wraps mongo.ErrNoDocuments with a domain-specific error,
// preserving the original MongoDB error while adding domain context.
//
// Usage in repository methods:
//
//	err := r.collection.FindOne(ctx, filter).Decode(&user)
//	if err == mongo.ErrNoDocuments {
//	    return nil, WrapNotFound(err, ErrUserNotFound)
//	}
func WrapNotFound(err error, domainErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", domainErr, err)
	}
	return err
}
