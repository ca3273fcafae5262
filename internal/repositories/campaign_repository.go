package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/pkg/mongodb"
	"github.com/ecoportal/backend/pkg/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCampaignRepository handles campaign data access with MongoDB.
type MongoCampaignRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

// NewMongoCampaignRepository creates a new MongoCampaignRepository.
func NewMongoCampaignRepository(client *mongodb.Client) *MongoCampaignRepository {
	return &MongoCampaignRepository{
		client:     client,
		collection: client.Collection("campaigns"),
	}
}

// EnsureIndexes creates listing indexes. Idempotent.
func (r *MongoCampaignRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "organizer_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("error creating campaign indexes: %w", err)
	}
	return nil
}

// Create inserts a new campaign document.
func (r *MongoCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	if campaign.ID == "" {
		campaign.ID = uuid.MustNew()
	}
	if campaign.Status == "" {
		campaign.Status = models.StatusPending
	}

	_, err := r.collection.InsertOne(ctx, campaign)
	if err != nil {
		return fmt.Errorf("error creating campaign: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign by id.
func (r *MongoCampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&campaign)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrCampaignNotFound)
		}
		return nil, fmt.Errorf("error finding campaign: %w", err)
	}

	return &campaign, nil
}

// campaignUpdateDoc builds the $set document for Update. It only carries the
// organizer-editable fields so participants and impact totals written by
// concurrent joins survive an edit.
func campaignUpdateDoc(campaign *models.Campaign) bson.M {
	return bson.M{
		"title":            campaign.Title,
		"description":      campaign.Description,
		"category":         campaign.Category,
		"image":            campaign.Image,
		"start_date":       campaign.StartDate,
		"end_date":         campaign.EndDate,
		"location":         campaign.Location,
		"max_participants": campaign.MaxParticipants,
		"tags":             campaign.Tags,
		"status":           campaign.Status,
		"updated_at":       campaign.UpdatedAt,
	}
}

// Update replaces the organizer-editable campaign fields.
func (r *MongoCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": campaign.ID}, bson.M{"$set": campaignUpdateDoc(campaign)})
	if err != nil {
		return fmt.Errorf("error updating campaign: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// UpdateStatus sets the moderation status and admin notes, returning the
// updated document.
func (r *MongoCampaignRepository) UpdateStatus(ctx context.Context, id string, status models.ModerationStatus, adminNotes string) (*models.Campaign, error) {
	update := bson.M{"$set": bson.M{
		"status":      status,
		"admin_notes": adminNotes,
		"updated_at":  time.Now(),
	}}

	var campaign models.Campaign
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&campaign)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrCampaignNotFound)
		}
		return nil, fmt.Errorf("error updating campaign status: %w", err)
	}

	return &campaign, nil
}

// Delete removes a campaign document.
func (r *MongoCampaignRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting campaign: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// AddParticipant joins a user to a campaign. The filter re-checks
// membership so a concurrent double-join inserts once.
func (r *MongoCampaignRepository) AddParticipant(ctx context.Context, id string, participant models.Participant) error {
	filter := bson.M{
		"_id":                  id,
		"participants.user_id": bson.M{"$ne": participant.UserID},
	}
	update := bson.M{
		"$push": bson.M{"participants": participant},
		"$inc":  bson.M{"impact.participants_count": 1},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error adding participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes a user from a campaign.
func (r *MongoCampaignRepository) RemoveParticipant(ctx context.Context, id, userID string) error {
	update := bson.M{"$pull": bson.M{"participants": bson.M{"user_id": userID}}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error removing participant: %w", err)
	}
	return nil
}

// CampaignFilter narrows campaign listings.
type CampaignFilter struct {
	Category    string
	Status      string
	Search      string // matches title, description or location
	OrganizerID string
	Participant string // user id that must appear in participants
	SortBy      string
	SortDesc    bool
}

// List returns campaigns matching the filter plus the total match count.
func (r *MongoCampaignRepository) List(ctx context.Context, filter CampaignFilter, limit, offset int) ([]*models.Campaign, int64, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.OrganizerID != "" {
		query["organizer_id"] = filter.OrganizerID
	}
	if filter.Participant != "" {
		query["participants.user_id"] = filter.Participant
	}
	if filter.Search != "" {
		query["$or"] = []bson.M{
			{"title": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"description": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"location": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting campaigns: %w", err)
	}

	sortField := filter.SortBy
	if sortField == "" {
		sortField = "created_at"
	}
	sortOrder := 1
	if filter.SortDesc {
		sortOrder = -1
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: sortField, Value: sortOrder}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	var campaigns []*models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, 0, fmt.Errorf("error decoding campaigns: %w", err)
	}

	return campaigns, total, nil
}

// Count counts all campaigns, optionally by status.
func (r *MongoCampaignRepository) Count(ctx context.Context, status models.ModerationStatus) (int64, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error counting campaigns: %w", err)
	}
	return total, nil
}

// CountByCategory groups campaigns by category.
func (r *MongoCampaignRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating campaigns by category: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding category counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}
