package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "mongo no documents", err: mongo.ErrNoDocuments, want: true},
		{name: "bare user not found", err: ErrUserNotFound, want: true},
		{name: "bare campaign not found", err: ErrCampaignNotFound, want: true},
		{name: "bare resource not found", err: ErrResourceNotFound, want: true},
		{name: "bare agency not found", err: ErrAgencyNotFound, want: true},
		{name: "wrapped user not found", err: WrapNotFound(mongo.ErrNoDocuments, ErrUserNotFound), want: true},
		{name: "domain error wrapped by caller", err: fmt.Errorf("load session: %w", ErrUserNotFound), want: true},
		{name: "email taken is not a not-found", err: ErrEmailTaken, want: false},
		{name: "refresh mismatch is not a not-found", err: ErrRefreshTokenMismatch, want: false},
		{name: "unrelated error", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestWrapNotFound(t *testing.T) {
	t.Run("wraps mongo no documents with domain error", func(t *testing.T) {
		err := WrapNotFound(mongo.ErrNoDocuments, ErrCampaignNotFound)
		assert.ErrorIs(t, err, ErrCampaignNotFound)
		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	})

	t.Run("passes through other errors", func(t *testing.T) {
		base := errors.New("write conflict")
		assert.Equal(t, base, WrapNotFound(base, ErrCampaignNotFound))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WrapNotFound(nil, ErrCampaignNotFound))
	})
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(ErrDuplicateKey))
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert user: %w", ErrDuplicateKey)))
	assert.False(t, IsDuplicateKey(errors.New("timeout")))
}
