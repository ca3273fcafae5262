package models

import (
	"time"
)

// ModerationStatus is shared by campaigns, resources and agencies:
// proposals start pending and an admin approves or rejects them.
type ModerationStatus string

const (
	StatusPending   ModerationStatus = "pending"
	StatusApproved  ModerationStatus = "approved"
	StatusRejected  ModerationStatus = "rejected"
	StatusActive    ModerationStatus = "active"
	StatusCompleted ModerationStatus = "completed"
)

// CampaignCategory classifies a campaign.
type CampaignCategory string

const (
	CategoryAwareness CampaignCategory = "awareness"
	CategoryCleanup   CampaignCategory = "cleanup"
	CategoryEducation CampaignCategory = "education"
	CategoryRecycling CampaignCategory = "recycling"
	CategoryBusiness  CampaignCategory = "business"
)

// IsValidCampaignCategory checks if the category is one of the fixed set.
func IsValidCampaignCategory(c string) bool {
	switch CampaignCategory(c) {
	case CategoryAwareness, CategoryCleanup, CategoryEducation, CategoryRecycling, CategoryBusiness:
		return true
	}
	return false
}

// Participant records a user who joined a campaign.
type Participant struct {
	UserID   string    `bson:"user_id" json:"userId"`
	JoinedAt time.Time `bson:"joined_at" json:"joinedAt"`
}

// CampaignImpact aggregates reported campaign outcomes.
type CampaignImpact struct {
	PlasticReduced    float64 `bson:"plastic_reduced" json:"plasticReduced"` // kilograms
	ParticipantsCount int     `bson:"participants_count" json:"participantsCount"`
}

// Campaign represents a community plastic-waste-reduction campaign.
// Collection: campaigns
type Campaign struct {
	ID              string           `bson:"_id,omitempty" json:"id"`
	Title           string           `bson:"title" json:"title"`
	Description     string           `bson:"description" json:"description"`
	Category        CampaignCategory `bson:"category" json:"category"`
	Image           string           `bson:"image,omitempty" json:"image,omitempty"`
	StartDate       time.Time        `bson:"start_date" json:"startDate"`
	EndDate         time.Time        `bson:"end_date" json:"endDate"`
	Location        string           `bson:"location" json:"location"`
	OrganizerID     string           `bson:"organizer_id" json:"organizerId"`
	Status          ModerationStatus `bson:"status" json:"status"`
	Participants    []Participant    `bson:"participants,omitempty" json:"participants,omitempty"`
	MaxParticipants int              `bson:"max_participants,omitempty" json:"maxParticipants,omitempty"`
	Tags            []string         `bson:"tags,omitempty" json:"tags,omitempty"`
	Impact          CampaignImpact   `bson:"impact" json:"impact"`
	AdminNotes      string           `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`
	CreatedAt       time.Time        `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `bson:"updated_at" json:"updatedAt"`
}

// HasParticipant reports whether the user already joined.
func (c *Campaign) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the participant limit has been reached.
func (c *Campaign) IsFull() bool {
	return c.MaxParticipants > 0 && len(c.Participants) >= c.MaxParticipants
}
