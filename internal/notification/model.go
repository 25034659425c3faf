package notification

import (
	"time"
)

// Domain activity types carried on the Kafka topic.
const (
	ActivityMemberJoined        = "member.joined"
	ActivityMemberStatusChanged = "member.status_changed"
	ActivityAnnouncementCreated = "announcement.created"
)

// In-app notification categories.
const (
	CategoryMembership   = "membership"
	CategoryAnnouncement = "announcement"
)

// Activity is a domain event emitted by the member and announcement services.
type Activity struct {
	Type           string    `json:"type"`
	EventID        string    `json:"event_id"`
	ActorID        string    `json:"actor_id"`
	UserID         string    `json:"user_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	JoinSource     string    `json:"join_source,omitempty"`
	AnnouncementID string    `json:"announcement_id,omitempty"`
	Title          string    `json:"title,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// InAppNotification - per-user bell notification
type InAppNotification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	EventID   *string   `gorm:"size:36" json:"event_id,omitempty"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Category  string    `gorm:"size:50;not null" json:"category"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (InAppNotification) TableName() string {
	return "in_app_notifications"
}

// DeviceToken - FCM registration token of one device
type DeviceToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Token     string    `gorm:"size:500;not null;uniqueIndex" json:"token"`
	Platform  string    `gorm:"size:20;not null;default:'web'" json:"platform"` // android, ios, web
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required,max=500"`
	Platform string `json:"platform" binding:"omitempty,oneof=android ios web"`
}

type RemoveDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// recipient is a profile row that should hear about an activity.
type recipient struct {
	ID       string
	Email    string
	FullName string
}

// notice is one rendered message for one recipient.
type notice struct {
	To       recipient
	Title    string
	Message  string
	Category string
}
