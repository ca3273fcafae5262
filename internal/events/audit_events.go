package events

import (
	"log"
	"time"

	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/pkg/uuid"
)

// Publisher is the Kafka producer capability the audit mirror needs.
type Publisher interface {
	PublishJSON(topic string, data interface{}) error
}

// AuditEvent is the wire form of an audit entry mirrored to Kafka.
type AuditEvent struct {
	EventID    string                 `json:"event_id"`
	Timestamp  int64                  `json:"timestamp"`
	AdminID    string                 `json:"admin_id"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
}

// AuditPublisher mirrors persisted audit entries to a Kafka topic. The
// persisted Mongo entry is authoritative; the mirror is fire-and-forget.
type AuditPublisher struct {
	producer Publisher
	topic    string
	enabled  bool
}

// NewAuditPublisher creates a new audit publisher. A nil producer disables
// mirroring; entries are still logged locally.
func NewAuditPublisher(producer Publisher, topic string) *AuditPublisher {
	enabled := producer != nil
	if enabled {
		log.Println("Audit event publisher initialized (Kafka enabled)")
	} else {
		log.Println("Audit event publisher initialized (Kafka disabled - events will be logged only)")
	}
	return &AuditPublisher{
		producer: producer,
		topic:    topic,
		enabled:  enabled,
	}
}

// Publish mirrors an audit entry to Kafka (fire-and-forget).
func (p *AuditPublisher) Publish(entry *models.AuditLog) {
	event := &AuditEvent{
		EventID:    uuid.MustNew(),
		Timestamp:  time.Now().Unix(),
		AdminID:    entry.AdminID,
		Action:     string(entry.Action),
		TargetType: string(entry.TargetType),
		TargetID:   entry.TargetID,
		Details:    entry.Details,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}

	log.Printf("AUDIT: admin=%s action=%s target=%s/%s", event.AdminID, event.Action, event.TargetType, event.TargetID)

	if !p.enabled {
		return
	}

	go func() {
		if err := p.producer.PublishJSON(p.topic, event); err != nil {
			log.Printf("Failed to publish audit event: %v", err)
		}
	}()
}
