package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ecoportal/backend/internal/events"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
)

// AuditStore is the persistence capability of the audit trail.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	Query(ctx context.Context, filter repositories.AuditLogFilter, limit, offset int) ([]*models.AuditLog, int64, error)
}

// AuditService appends entries to the persisted audit trail and mirrors
// them to Kafka. The append is synchronous: a privileged mutation must not
// respond until its entry is durable.
type AuditService struct {
	store     AuditStore
	publisher *events.AuditPublisher
}

// NewAuditService creates a new AuditService. The publisher may be backed
// by a nil producer when Kafka is disabled.
func NewAuditService(store AuditStore, publisher *events.AuditPublisher) *AuditService {
	return &AuditService{
		store:     store,
		publisher: publisher,
	}
}

// Record appends an entry and mirrors it. The mirror never fails the
// request; the append does.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit append failed: %w", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(entry)
	}

	return nil
}

// Query returns entries newest-first, filtered by action and acting admin.
func (s *AuditService) Query(ctx context.Context, filter repositories.AuditLogFilter, limit, offset int) ([]*models.AuditLog, int64, error) {
	return s.store.Query(ctx, filter, limit, offset)
}
