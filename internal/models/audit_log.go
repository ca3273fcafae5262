package models

import (
	"time"
)

// AuditAction tags the kind of privileged action recorded in the audit log.
type AuditAction string

const (
	ActionUserCreated      AuditAction = "user_created"
	ActionUserUpdated      AuditAction = "user_updated"
	ActionUserDeleted      AuditAction = "user_deleted"
	ActionUserBlocked      AuditAction = "user_blocked"
	ActionUserUnblocked    AuditAction = "user_unblocked"
	ActionCampaignApproved AuditAction = "campaign_approved"
	ActionCampaignRejected AuditAction = "campaign_rejected"
	ActionCampaignDeleted  AuditAction = "campaign_deleted"
	ActionResourceApproved AuditAction = "resource_approved"
	ActionResourceRejected AuditAction = "resource_rejected"
	ActionResourceDeleted  AuditAction = "resource_deleted"
	ActionAgencyApproved   AuditAction = "agency_approved"
	ActionAgencyRejected   AuditAction = "agency_rejected"
	ActionAgencyDeleted    AuditAction = "agency_deleted"
	ActionAdminLogin       AuditAction = "admin_login"
	ActionAdminLogout      AuditAction = "admin_logout"
	ActionSettingsUpdated  AuditAction = "settings_updated"
)

// AuditTargetType identifies the entity class an audit entry refers to.
type AuditTargetType string

const (
	AuditTargetUser     AuditTargetType = "User"
	AuditTargetCampaign AuditTargetType = "Campaign"
	AuditTargetResource AuditTargetType = "Resource"
	AuditTargetAgency   AuditTargetType = "Agency"
	AuditTargetSystem   AuditTargetType = "System"
)

// AuditLog is an append-only record of an administrative action.
// Collection: audit_logs. Entries are never updated or deleted.
type AuditLog struct {
	ID         string                 `bson:"_id,omitempty" json:"id"`
	AdminID    string                 `bson:"admin_id" json:"adminId"`
	Action     AuditAction            `bson:"action" json:"action"`
	TargetType AuditTargetType        `bson:"target_type" json:"targetType"`
	TargetID   string                 `bson:"target_id,omitempty" json:"targetId,omitempty"`
	Details    map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress  string                 `bson:"ip_address,omitempty" json:"ipAddress,omitempty"`
	UserAgent  string                 `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"createdAt"`
}
