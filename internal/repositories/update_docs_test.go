package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ecoportal/backend/internal/models"
)

// An organizer edit must never rewrite the participant list or impact
// totals, or concurrent joins get erased.
func TestCampaignUpdateDocLeavesParticipantsAlone(t *testing.T) {
	campaign := &models.Campaign{
		ID:          "camp-1",
		Title:       "Harbor cleanup",
		Description: "Monthly cleanup of the harbor front",
		Category:    models.CategoryCleanup,
		Status:      models.StatusPending,
		OrganizerID: "user-1",
		Participants: []models.Participant{
			{UserID: "user-2", JoinedAt: time.Now()},
		},
		Impact:    models.CampaignImpact{ParticipantsCount: 1},
		UpdatedAt: time.Now(),
	}

	doc := campaignUpdateDoc(campaign)

	assert.NotContains(t, doc, "participants")
	assert.NotContains(t, doc, "impact")
	assert.NotContains(t, doc, "_id")
	assert.NotContains(t, doc, "organizer_id")
	assert.NotContains(t, doc, "created_at")

	assert.Equal(t, "Harbor cleanup", doc["title"])
	assert.Equal(t, models.StatusPending, doc["status"])
	assert.Contains(t, doc, "updated_at")
}

func TestResourceUpdateDocLeavesCountersAlone(t *testing.T) {
	resource := &models.Resource{
		ID:       "res-1",
		Title:    "Composting basics",
		AuthorID: "user-1",
		Views:    42,
		Likes:    []models.Like{{UserID: "user-2", LikedAt: time.Now()}},
	}

	doc := resourceUpdateDoc(resource)

	assert.NotContains(t, doc, "views")
	assert.NotContains(t, doc, "likes")
	assert.NotContains(t, doc, "_id")
	assert.NotContains(t, doc, "author_id")

	assert.Equal(t, "Composting basics", doc["title"])
}

func TestAgencyUpdateDocLeavesReviewsAlone(t *testing.T) {
	agency := &models.Agency{
		ID:            "ag-1",
		Name:          "GreenCycle",
		SubmittedByID: "user-1",
		Rating:        models.AgencyRating{Average: 4.5, Count: 2},
		Reviews:       []models.Review{{UserID: "user-2", Rating: 5}},
	}

	doc := agencyUpdateDoc(agency)

	assert.NotContains(t, doc, "reviews")
	assert.NotContains(t, doc, "rating")
	assert.NotContains(t, doc, "_id")
	assert.NotContains(t, doc, "submitted_by_id")

	assert.Equal(t, "GreenCycle", doc["name"])
}
