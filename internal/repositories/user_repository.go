package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/pkg/mongodb"
	"github.com/ecoportal/backend/pkg/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository handles user data access with MongoDB.
type MongoUserRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(client *mongodb.Client) *MongoUserRepository {
	return &MongoUserRepository{
		client:     client,
		collection: client.Collection("users"),
	}
}

// EnsureIndexes creates the unique email index. Idempotent.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating email index: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their id.
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrUserNotFound)
		}
		return nil, fmt.Errorf("error finding user by id: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by their email address. Emails are stored
// lower-cased, so the lookup lower-cases too.
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	filter := bson.M{"email": strings.ToLower(email)}
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrUserNotFound)
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}

	return &user, nil
}

// Create inserts a new user document.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID == "" {
		user.ID = uuid.MustNew()
	}
	user.Email = strings.ToLower(user.Email)

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", ErrEmailTaken, err)
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// UpdateName updates the mutable display name and returns the updated user.
// Email is immutable through this path.
func (r *MongoUserRepository) UpdateName(ctx context.Context, id, name string) (*models.User, error) {
	update := bson.M{"$set": bson.M{
		"name":       name,
		"updated_at": time.Now(),
	}}

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrUserNotFound)
		}
		return nil, fmt.Errorf("error updating user name: %w", err)
	}

	return &user, nil
}

// UpdatePreferences replaces the stored preferences and returns the updated
// user.
func (r *MongoUserRepository) UpdatePreferences(ctx context.Context, id string, prefs models.UserPreferences) (*models.User, error) {
	update := bson.M{"$set": bson.M{
		"preferences": prefs,
		"updated_at":  time.Now(),
	}}

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrUserNotFound)
		}
		return nil, fmt.Errorf("error updating preferences: %w", err)
	}

	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	update := bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token unconditionally
// (login and registration; an empty token ends the session).
func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	update := bson.M{"$set": bson.M{
		"refresh_token": refreshToken,
		"updated_at":    time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error setting refresh token: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken atomically replaces oldToken with newToken. The filter
// matches on the stored token, so concurrent rotations using the same stale
// token race and at most one succeeds; the loser gets
// ErrRefreshTokenMismatch.
func (r *MongoUserRepository) RotateRefreshToken(ctx context.Context, id, oldToken, newToken string) error {
	filter := bson.M{"_id": id, "refresh_token": oldToken}
	update := bson.M{"$set": bson.M{
		"refresh_token": newToken,
		"updated_at":    time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error rotating refresh token: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

// UpdateLastLogin records a successful login timestamp.
func (r *MongoUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"last_login": at,
		"updated_at": at,
	}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}

// SetActive flips the account's active flag.
func (r *MongoUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	update := bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating user status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user document.
func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddBookmark appends a bookmark. The caller is responsible for the
// uniqueness check; the filter re-checks it so a concurrent duplicate add
// is dropped rather than stored twice.
func (r *MongoUserRepository) AddBookmark(ctx context.Context, id string, bookmark models.Bookmark) error {
	filter := bson.M{
		"_id": id,
		"bookmarks": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"resource_type": bookmark.ResourceType,
			"resource_id":   bookmark.ResourceID,
		}}},
	}
	update := bson.M{"$push": bson.M{"bookmarks": bookmark}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error adding bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark removes the bookmark for the given entity, if present.
func (r *MongoUserRepository) RemoveBookmark(ctx context.Context, id string, resourceType models.ResourceType, resourceID string) error {
	update := bson.M{"$pull": bson.M{"bookmarks": bson.M{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error removing bookmark: %w", err)
	}
	return nil
}

// AppendActivity pushes an activity entry, keeping only the most recent
// models.MaxActivityHistory entries.
func (r *MongoUserRepository) AppendActivity(ctx context.Context, id string, entry models.ActivityEntry) error {
	update := bson.M{"$push": bson.M{"activity_history": bson.M{
		"$each":  []models.ActivityEntry{entry},
		"$slice": -models.MaxActivityHistory,
	}}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error appending activity: %w", err)
	}
	return nil
}

// ClearActivity empties the activity history.
func (r *MongoUserRepository) ClearActivity(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"activity_history": []models.ActivityEntry{}}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error clearing activity history: %w", err)
	}
	return nil
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role   string
	Status string // "active" or "blocked"
	Search string // matches name or email, case-insensitive
}

// List returns non-admin users matching the filter, newest first, plus the
// total match count for pagination.
func (r *MongoUserRepository) List(ctx context.Context, filter UserFilter, limit, offset int) ([]*models.User, int64, error) {
	query := bson.M{"role": bson.M{"$ne": models.UserRoleAdmin}}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Status != "" {
		query["is_active"] = filter.Status == "active"
	}
	if filter.Search != "" {
		query["$or"] = []bson.M{
			{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"email": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("error decoding users: %w", err)
	}

	return users, total, nil
}

// CountByRole groups non-admin users by role.
func (r *MongoUserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": bson.M{"$ne": models.UserRoleAdmin}}}},
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating users by role: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding role counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}

// CountNonAdmin counts all non-admin users.
func (r *MongoUserRepository) CountNonAdmin(ctx context.Context) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{"role": bson.M{"$ne": models.UserRoleAdmin}})
	if err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return total, nil
}

// Recent returns the most recently registered non-admin users.
func (r *MongoUserRepository) Recent(ctx context.Context, limit int) ([]*models.User, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"role": bson.M{"$ne": models.UserRoleAdmin}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing recent users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	return users, nil
}

// HasAdmin reports whether any admin-role account exists.
func (r *MongoUserRepository) HasAdmin(ctx context.Context) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"role": models.UserRoleAdmin}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error counting admins: %w", err)
	}
	return count > 0, nil
}
