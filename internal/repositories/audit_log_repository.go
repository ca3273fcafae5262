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

// MongoAuditLogRepository handles the append-only audit trail. No update or
// delete methods exist on purpose.
type MongoAuditLogRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

// NewMongoAuditLogRepository creates a new MongoAuditLogRepository.
func NewMongoAuditLogRepository(client *mongodb.Client) *MongoAuditLogRepository {
	return &MongoAuditLogRepository{
		client:     client,
		collection: client.Collection("audit_logs"),
	}
}

// EnsureIndexes creates query indexes for the admin console. Idempotent.
func (r *MongoAuditLogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "admin_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("error creating audit log indexes: %w", err)
	}
	return nil
}

// Append inserts an audit entry. Callers must not respond to the client
// until this returns: the entry is part of the privileged mutation.
func (r *MongoAuditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.MustNew()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("error appending audit log entry: %w", err)
	}
	return nil
}

// AuditLogFilter narrows audit log queries.
type AuditLogFilter struct {
	Action  string
	AdminID string
}

// Query returns entries newest-first with the total match count.
func (r *MongoAuditLogRepository) Query(ctx context.Context, filter AuditLogFilter, limit, offset int) ([]*models.AuditLog, int64, error) {
	query := bson.M{}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.AdminID != "" {
		query["admin_id"] = filter.AdminID
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting audit log entries: %w", err)
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying audit log: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.AuditLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("error decoding audit log entries: %w", err)
	}

	return entries, total, nil
}
