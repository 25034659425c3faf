package auditlog

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions written by the services.
const (
	ActionEventCreated        = "EVENT_CREATED"
	ActionEventUpdated        = "EVENT_UPDATED"
	ActionEventClosed         = "EVENT_CLOSED"
	ActionEventDeleted        = "EVENT_DELETED"
	ActionMemberJoined        = "MEMBER_JOINED"
	ActionMemberStatusChanged = "MEMBER_STATUS_CHANGED"
	ActionMemberRemoved       = "MEMBER_REMOVED"
	ActionAnnouncementCreated = "ANNOUNCEMENT_CREATED"
	ActionAnnouncementUpdated = "ANNOUNCEMENT_UPDATED"
	ActionAnnouncementDeleted = "ANNOUNCEMENT_DELETED"
	ActionProfileUpdated      = "PROFILE_UPDATED"
	ActionMembersExported     = "MEMBERS_EXPORTED"
	StatusSuccess             = "success"
	StatusFailure             = "failure"
)

// AuditLog represents the audit_logs table
type AuditLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *string        `gorm:"size:36;index" json:"user_id"`
	EventID   *string        `gorm:"size:36;index" json:"event_id"` // nullable for profile actions
	Action    string         `gorm:"size:100;not null;index" json:"action"`
	Details   datatypes.JSON `json:"details"`
	IPAddress string         `gorm:"size:45" json:"ip_address"`
	Status    string         `gorm:"size:20;not null;index" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName overrides table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogResponse adds display names resolved from profiles and events.
type AuditLogResponse struct {
	ID         uint           `json:"id"`
	UserID     *string        `json:"user_id"`
	EventID    *string        `json:"event_id"`
	Action     string         `json:"action"`
	Details    datatypes.JSON `json:"details"`
	IPAddress  string         `json:"ip_address"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UserName   *string        `json:"user_name,omitempty"`
	EventTitle *string        `json:"event_title,omitempty"`
}

// AuditLogFilter represents filters for querying audit logs
type AuditLogFilter struct {
	UserID   *string
	EventID  *string
	Action   string
	Status   string
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	Limit    int
}

// PaginatedAuditLogs represents paginated audit log response
type PaginatedAuditLogs struct {
	Data       []AuditLogResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
