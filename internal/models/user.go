package models

import (
	"time"
)

// User represents a portal account.
// Collection: users
type User struct {
	ID              string          `bson:"_id,omitempty" json:"id"`
	Name            string          `bson:"name" json:"name"`
	Email           string          `bson:"email" json:"email"`
	PasswordHash    string          `bson:"password_hash" json:"-"` // Never expose in JSON
	Role            UserRole        `bson:"role" json:"role"`
	IsActive        bool            `bson:"is_active" json:"isActive"`
	IsVerified      bool            `bson:"is_verified" json:"isVerified"`
	RefreshToken    string          `bson:"refresh_token,omitempty" json:"-"` // Never expose in JSON
	LastLogin       *time.Time      `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	Preferences     UserPreferences `bson:"preferences" json:"preferences"`
	Bookmarks       []Bookmark      `bson:"bookmarks,omitempty" json:"bookmarks,omitempty"`
	ActivityHistory []ActivityEntry `bson:"activity_history,omitempty" json:"-"`
	CreatedAt       time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updatedAt"`
}

type UserRole string

const (
	UserRoleUser            UserRole = "user"             // Regular portal member
	UserRoleContentProposer UserRole = "content_proposer" // May propose campaigns/resources/agencies
	UserRoleAdmin           UserRole = "admin"            // Full access, moderation console
)

// IsValidUserRole checks if the user role is valid.
func IsValidUserRole(role string) bool {
	switch UserRole(role) {
	case UserRoleUser, UserRoleContentProposer, UserRoleAdmin:
		return true
	}
	return false
}

// UserPreferences holds per-user portal settings.
type UserPreferences struct {
	EmailNotifications bool   `bson:"email_notifications" json:"emailNotifications"`
	Newsletter         bool   `bson:"newsletter" json:"newsletter"`
	Language           string `bson:"language,omitempty" json:"language,omitempty"`
}

// ResourceType identifies which collection a bookmark or activity entry
// points at.
type ResourceType string

const (
	ResourceTypeCampaign ResourceType = "campaign"
	ResourceTypeResource ResourceType = "resource"
	ResourceTypeAgency   ResourceType = "agency"
)

// IsValidResourceType checks if the referenced entity type is valid.
func IsValidResourceType(t string) bool {
	switch ResourceType(t) {
	case ResourceTypeCampaign, ResourceTypeResource, ResourceTypeAgency:
		return true
	}
	return false
}

// Bookmark is a saved reference to a campaign, resource or agency.
// At most one bookmark per (resource_type, resource_id) pair per user.
type Bookmark struct {
	ResourceType ResourceType `bson:"resource_type" json:"resourceType"`
	ResourceID   string       `bson:"resource_id" json:"resourceId"`
	AddedAt      time.Time    `bson:"added_at" json:"addedAt"`
}

// ActivityEntry records a user-facing action (joined a campaign, liked a
// resource, ...). The persisted list is capped to the most recent
// MaxActivityHistory entries on write.
type ActivityEntry struct {
	Action       string       `bson:"action" json:"action"`
	ResourceType ResourceType `bson:"resource_type" json:"resourceType"`
	ResourceID   string       `bson:"resource_id" json:"resourceId"`
	Timestamp    time.Time    `bson:"timestamp" json:"timestamp"`
}

// MaxActivityHistory bounds the per-user activity list.
const MaxActivityHistory = 100

// UserProfile is the sanitized view of a user, safe for API responses.
type UserProfile struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        UserRole        `json:"role"`
	IsActive    bool            `json:"isActive"`
	IsVerified  bool            `json:"isVerified"`
	LastLogin   *time.Time      `json:"lastLogin,omitempty"`
	Preferences UserPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ToProfile converts a User to a UserProfile, stripping the password hash
// and refresh token.
func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		LastLogin:   u.LastLogin,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
	}
}

// HasBookmark reports whether the user already bookmarked the given entity.
func (u *User) HasBookmark(resourceType ResourceType, resourceID string) bool {
	for _, b := range u.Bookmarks {
		if b.ResourceType == resourceType && b.ResourceID == resourceID {
			return true
		}
	}
	return false
}
