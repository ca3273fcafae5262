package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserJSONNeverLeaksCredentials(t *testing.T) {
	now := time.Now()
	user := User{
		ID:           "u-1",
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         UserRoleUser,
		IsActive:     true,
		RefreshToken: "opaque-refresh-token",
		ActivityHistory: []ActivityEntry{
			{Action: "campaign_joined", ResourceType: ResourceTypeCampaign, ResourceID: "c-1", Timestamp: now},
		},
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.NotContains(t, string(raw), "$2a$10$secret")
	assert.NotContains(t, string(raw), "opaque-refresh-token")
	assert.NotContains(t, decoded, "passwordHash")
	assert.NotContains(t, decoded, "activityHistory")
	assert.Equal(t, "ana@example.com", decoded["email"])
}

func TestToProfile(t *testing.T) {
	user := User{
		ID:           "u-1",
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "hash",
		Role:         UserRoleContentProposer,
		IsActive:     true,
		RefreshToken: "token",
	}

	profile := user.ToProfile()
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, user.Role, profile.Role)
	assert.Equal(t, user.Email, profile.Email)
}

func TestHasBookmark(t *testing.T) {
	user := User{Bookmarks: []Bookmark{
		{ResourceType: ResourceTypeCampaign, ResourceID: "c-1"},
		{ResourceType: ResourceTypeResource, ResourceID: "r-1"},
	}}

	assert.True(t, user.HasBookmark(ResourceTypeCampaign, "c-1"))
	assert.False(t, user.HasBookmark(ResourceTypeAgency, "c-1"))
	assert.False(t, user.HasBookmark(ResourceTypeCampaign, "r-1"))
}

func TestCampaignIsFull(t *testing.T) {
	campaign := Campaign{
		MaxParticipants: 2,
		Participants:    []Participant{{UserID: "u-1"}},
	}
	assert.False(t, campaign.IsFull())

	campaign.Participants = append(campaign.Participants, Participant{UserID: "u-2"})
	assert.True(t, campaign.IsFull())

	// Zero means unlimited.
	unlimited := Campaign{Participants: []Participant{{UserID: "u-1"}}}
	assert.False(t, unlimited.IsFull())
}

func TestValidityHelpers(t *testing.T) {
	assert.True(t, IsValidUserRole("content_proposer"))
	assert.False(t, IsValidUserRole("superuser"))

	assert.True(t, IsValidResourceType("agency"))
	assert.False(t, IsValidResourceType("bookmark"))

	assert.True(t, IsValidCampaignCategory("cleanup"))
	assert.False(t, IsValidCampaignCategory("other"))

	assert.True(t, IsValidResourceCategory("guides"))
	assert.False(t, IsValidResourceCategory("memes"))

	assert.True(t, IsValidAgencyType("ngo"))
	assert.False(t, IsValidAgencyType("charity"))
}
