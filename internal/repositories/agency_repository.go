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

// MongoAgencyRepository handles recycling agency data access.
type MongoAgencyRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

// NewMongoAgencyRepository creates a new MongoAgencyRepository.
func NewMongoAgencyRepository(client *mongodb.Client) *MongoAgencyRepository {
	return &MongoAgencyRepository{
		client:     client,
		collection: client.Collection("agencies"),
	}
}

// EnsureIndexes creates listing and geo indexes. Idempotent.
func (r *MongoAgencyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
	})
	if err != nil {
		return fmt.Errorf("error creating agency indexes: %w", err)
	}
	return nil
}

// Create inserts a new agency document.
func (r *MongoAgencyRepository) Create(ctx context.Context, agency *models.Agency) error {
	now := time.Now()
	agency.CreatedAt = now
	agency.UpdatedAt = now
	if agency.ID == "" {
		agency.ID = uuid.MustNew()
	}
	if agency.Status == "" {
		agency.Status = models.StatusPending
	}
	if agency.Location.Type == "" {
		agency.Location.Type = "Point"
	}

	_, err := r.collection.InsertOne(ctx, agency)
	if err != nil {
		return fmt.Errorf("error creating agency: %w", err)
	}
	return nil
}

// GetByID retrieves an agency by id.
func (r *MongoAgencyRepository) GetByID(ctx context.Context, id string) (*models.Agency, error) {
	var agency models.Agency

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&agency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrAgencyNotFound)
		}
		return nil, fmt.Errorf("error finding agency: %w", err)
	}

	return &agency, nil
}

// agencyUpdateDoc builds the $set document for Update. It only carries the
// submitter-editable fields so reviews and the aggregate rating written
// concurrently are not clobbered.
func agencyUpdateDoc(agency *models.Agency) bson.M {
	return bson.M{
		"name":               agency.Name,
		"description":        agency.Description,
		"type":               agency.Type,
		"contact":            agency.Contact,
		"address":            agency.Address,
		"location":           agency.Location,
		"services":           agency.Services,
		"accepted_materials": agency.AcceptedMaterials,
		"status":             agency.Status,
		"updated_at":         agency.UpdatedAt,
	}
}

// Update replaces the submitter-editable agency fields.
func (r *MongoAgencyRepository) Update(ctx context.Context, agency *models.Agency) error {
	agency.UpdatedAt = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": agency.ID}, bson.M{"$set": agencyUpdateDoc(agency)})
	if err != nil {
		return fmt.Errorf("error updating agency: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrAgencyNotFound
	}
	return nil
}

// UpdateStatus sets the moderation status and admin notes, returning the
// updated document.
func (r *MongoAgencyRepository) UpdateStatus(ctx context.Context, id string, status models.ModerationStatus, adminNotes string) (*models.Agency, error) {
	update := bson.M{"$set": bson.M{
		"status":      status,
		"admin_notes": adminNotes,
		"updated_at":  time.Now(),
	}}

	var agency models.Agency
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&agency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrAgencyNotFound)
		}
		return nil, fmt.Errorf("error updating agency status: %w", err)
	}

	return &agency, nil
}

// Delete removes an agency document.
func (r *MongoAgencyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting agency: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrAgencyNotFound
	}
	return nil
}

// AddReview appends a review and recomputes the aggregate rating in one
// update. The filter re-checks the one-review-per-user invariant.
func (r *MongoAgencyRepository) AddReview(ctx context.Context, id string, review models.Review, newAverage float64, newCount int) error {
	filter := bson.M{
		"_id":             id,
		"reviews.user_id": bson.M{"$ne": review.UserID},
	}
	update := bson.M{
		"$push": bson.M{"reviews": review},
		"$set": bson.M{
			"rating.average": newAverage,
			"rating.count":   newCount,
			"updated_at":     time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error adding review: %w", err)
	}
	return nil
}

// AgencyFilter narrows agency listings.
type AgencyFilter struct {
	Type          string
	Status        string
	Search        string
	City          string
	SubmittedByID string
}

// List returns agencies matching the filter plus the total match count.
func (r *MongoAgencyRepository) List(ctx context.Context, filter AgencyFilter, limit, offset int) ([]*models.Agency, int64, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.City != "" {
		query["address.city"] = bson.M{"$regex": filter.City, "$options": "i"}
	}
	if filter.SubmittedByID != "" {
		query["submitted_by_id"] = filter.SubmittedByID
	}
	if filter.Search != "" {
		query["$or"] = []bson.M{
			{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"description": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting agencies: %w", err)
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing agencies: %w", err)
	}
	defer cursor.Close(ctx)

	var agencies []*models.Agency
	if err := cursor.All(ctx, &agencies); err != nil {
		return nil, 0, fmt.Errorf("error decoding agencies: %w", err)
	}

	return agencies, total, nil
}

// Nearby finds approved agencies within radiusKm of the given coordinates,
// closest first. It relies on the 2dsphere index on location.
func (r *MongoAgencyRepository) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]*models.Agency, error) {
	query := bson.M{
		"status": models.StatusApproved,
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
				"$maxDistance": radiusKm * 1000,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("error finding nearby agencies: %w", err)
	}
	defer cursor.Close(ctx)

	var agencies []*models.Agency
	if err := cursor.All(ctx, &agencies); err != nil {
		return nil, fmt.Errorf("error decoding nearby agencies: %w", err)
	}

	return agencies, nil
}

// TypeCount pairs an agency type with how many approved agencies carry it.
type TypeCount struct {
	Type  string `bson:"_id" json:"type"`
	Count int64  `bson:"count" json:"count"`
}

// CountByType groups approved agencies by type, most populated first.
func (r *MongoAgencyRepository) CountByType(ctx context.Context) ([]TypeCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusApproved}}},
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error counting agencies by type: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []TypeCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("error decoding type counts: %w", err)
	}

	return counts, nil
}

// Count counts all agencies, optionally by status.
func (r *MongoAgencyRepository) Count(ctx context.Context, status models.ModerationStatus) (int64, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error counting agencies: %w", err)
	}
	return total, nil
}
