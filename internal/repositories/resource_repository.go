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

// MongoResourceRepository handles educational resource data access.
type MongoResourceRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

// NewMongoResourceRepository creates a new MongoResourceRepository.
func NewMongoResourceRepository(client *mongodb.Client) *MongoResourceRepository {
	return &MongoResourceRepository{
		client:     client,
		collection: client.Collection("resources"),
	}
}

// EnsureIndexes creates listing and search indexes. Idempotent.
func (r *MongoResourceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("error creating resource indexes: %w", err)
	}
	return nil
}

// Create inserts a new resource document.
func (r *MongoResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	now := time.Now()
	resource.CreatedAt = now
	resource.UpdatedAt = now
	if resource.ID == "" {
		resource.ID = uuid.MustNew()
	}
	if resource.Status == "" {
		resource.Status = models.StatusPending
	}
	if resource.Difficulty == "" {
		resource.Difficulty = "beginner"
	}
	if resource.ReadTime == 0 {
		resource.ReadTime = 5
	}

	_, err := r.collection.InsertOne(ctx, resource)
	if err != nil {
		return fmt.Errorf("error creating resource: %w", err)
	}
	return nil
}

// GetByID retrieves a resource by id.
func (r *MongoResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	var resource models.Resource

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&resource)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrResourceNotFound)
		}
		return nil, fmt.Errorf("error finding resource: %w", err)
	}

	return &resource, nil
}

// resourceUpdateDoc builds the $set document for Update. It only carries the
// author-editable fields so counters and likes written concurrently are not
// clobbered.
func resourceUpdateDoc(resource *models.Resource) bson.M {
	return bson.M{
		"title":       resource.Title,
		"description": resource.Description,
		"content":     resource.Content,
		"category":    resource.Category,
		"type":        resource.Type,
		"url":         resource.URL,
		"thumbnail":   resource.Thumbnail,
		"tags":        resource.Tags,
		"difficulty":  resource.Difficulty,
		"read_time":   resource.ReadTime,
		"status":      resource.Status,
		"updated_at":  resource.UpdatedAt,
	}
}

// Update replaces the author-editable resource fields.
func (r *MongoResourceRepository) Update(ctx context.Context, resource *models.Resource) error {
	resource.UpdatedAt = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": resource.ID}, bson.M{"$set": resourceUpdateDoc(resource)})
	if err != nil {
		return fmt.Errorf("error updating resource: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// UpdateStatus sets the moderation status and admin notes, returning the
// updated document.
func (r *MongoResourceRepository) UpdateStatus(ctx context.Context, id string, status models.ModerationStatus, adminNotes string) (*models.Resource, error) {
	update := bson.M{"$set": bson.M{
		"status":      status,
		"admin_notes": adminNotes,
		"updated_at":  time.Now(),
	}}

	var resource models.Resource
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&resource)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrResourceNotFound)
		}
		return nil, fmt.Errorf("error updating resource status: %w", err)
	}

	return &resource, nil
}

// Delete removes a resource document.
func (r *MongoResourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting resource: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *MongoResourceRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("error incrementing views: %w", err)
	}
	return nil
}

// AddLike records a like. The filter re-checks so a concurrent double-like
// inserts once.
func (r *MongoResourceRepository) AddLike(ctx context.Context, id string, like models.Like) error {
	filter := bson.M{
		"_id":           id,
		"likes.user_id": bson.M{"$ne": like.UserID},
	}

	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"likes": like}})
	if err != nil {
		return fmt.Errorf("error adding like: %w", err)
	}
	return nil
}

// RemoveLike removes a user's like.
func (r *MongoResourceRepository) RemoveLike(ctx context.Context, id, userID string) error {
	update := bson.M{"$pull": bson.M{"likes": bson.M{"user_id": userID}}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error removing like: %w", err)
	}
	return nil
}

// ResourceFilter narrows resource listings.
type ResourceFilter struct {
	Category string
	Status   string
	Type     string
	Search   string
	AuthorID string
	SortBy   string
	SortDesc bool
}

// List returns resources matching the filter plus the total match count.
func (r *MongoResourceRepository) List(ctx context.Context, filter ResourceFilter, limit, offset int) ([]*models.Resource, int64, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.AuthorID != "" {
		query["author_id"] = filter.AuthorID
	}
	if filter.Search != "" {
		query["$or"] = []bson.M{
			{"title": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"description": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting resources: %w", err)
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
		return nil, 0, fmt.Errorf("error listing resources: %w", err)
	}
	defer cursor.Close(ctx)

	var resources []*models.Resource
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, 0, fmt.Errorf("error decoding resources: %w", err)
	}

	return resources, total, nil
}

// CategoryCount pairs a grouping key with how many documents carry it.
type CategoryCount struct {
	Category string `bson:"_id" json:"category"`
	Count    int64  `bson:"count" json:"count"`
}

// CountByCategory groups approved resources by category, most populated
// first.
func (r *MongoResourceRepository) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusApproved}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error counting resources by category: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []CategoryCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("error decoding category counts: %w", err)
	}

	return counts, nil
}

// Count counts all resources, optionally by status.
func (r *MongoResourceRepository) Count(ctx context.Context, status models.ModerationStatus) (int64, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error counting resources: %w", err)
	}
	return total, nil
}
