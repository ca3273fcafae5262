package models

import (
	"time"
)

// AgencyType classifies a recycling agency.
type AgencyType string

const (
	AgencyTypeRecyclingCenter AgencyType = "recycling_center"
	AgencyTypeNGO             AgencyType = "ngo"
	AgencyTypeBusiness        AgencyType = "business"
	AgencyTypeGovernment      AgencyType = "government"
)

// IsValidAgencyType checks if the agency type is one of the fixed set.
func IsValidAgencyType(t string) bool {
	switch AgencyType(t) {
	case AgencyTypeRecyclingCenter, AgencyTypeNGO, AgencyTypeBusiness, AgencyTypeGovernment:
		return true
	}
	return false
}

// AgencyContact holds contact details for an agency.
type AgencyContact struct {
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Website string `bson:"website,omitempty" json:"website,omitempty"`
}

// AgencyAddress is the postal address of an agency.
type AgencyAddress struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zip_code" json:"zipCode"`
	Country string `bson:"country" json:"country"`
}

// GeoPoint is a GeoJSON point, [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// AgencyRating aggregates review scores.
type AgencyRating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Review is a user rating of an agency. One review per user per agency.
type Review struct {
	UserID    string    `bson:"user_id" json:"userId"`
	Rating    int       `bson:"rating" json:"rating"` // 1-5
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Agency represents a recycling agency or related organization.
// Collection: agencies
type Agency struct {
	ID                string           `bson:"_id,omitempty" json:"id"`
	Name              string           `bson:"name" json:"name"`
	Description       string           `bson:"description" json:"description"`
	Type              AgencyType       `bson:"type" json:"type"`
	Contact           AgencyContact    `bson:"contact" json:"contact"`
	Address           AgencyAddress    `bson:"address" json:"address"`
	Location          GeoPoint         `bson:"location" json:"location"`
	Services          []string         `bson:"services" json:"services"`
	AcceptedMaterials []string         `bson:"accepted_materials" json:"acceptedMaterials"`
	Status            ModerationStatus `bson:"status" json:"status"`
	Rating            AgencyRating     `bson:"rating" json:"rating"`
	Reviews           []Review         `bson:"reviews,omitempty" json:"reviews,omitempty"`
	SubmittedByID     string           `bson:"submitted_by_id" json:"submittedById"`
	AdminNotes        string           `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`
	CreatedAt         time.Time        `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time        `bson:"updated_at" json:"updatedAt"`
}

// HasReview reports whether the user already reviewed the agency.
func (a *Agency) HasReview(userID string) bool {
	for _, r := range a.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
