package event

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BankAccount is the optional manual-transfer info shown to members.
type BankAccount struct {
	Bank    string `json:"bank"`
	Account string `json:"account"`
	Name    string `json:"name"`
}

// ============================
// 🔷 GORM Event Model
type Event struct {
	ID          string                           `gorm:"primaryKey;size:36" json:"id"`
	HostID      string                           `gorm:"size:36;not null;index" json:"host_id"`
	Title       string                           `gorm:"size:100;not null" json:"title"`
	Description string                           `gorm:"type:text;not null;default:''" json:"description"`
	Category    string                           `gorm:"size:20;not null" json:"category"`
	EventDate   time.Time                        `gorm:"not null;index" json:"event_date"`
	Location    string                           `gorm:"size:200;not null" json:"location"`
	MaxMembers  int                              `gorm:"not null" json:"max_members"`
	InviteCode  string                           `gorm:"size:8;not null;uniqueIndex" json:"invite_code"`
	BankAccount datatypes.JSONType[*BankAccount] `gorm:"type:jsonb;not null;default:'null'" json:"bank_account"`
	IsClosed    bool                             `gorm:"not null;default:false" json:"is_closed"`
	CreatedAt   time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EventPreview is the public view behind an invite link. It never carries
// the host, the closed flag or the bank account.
type EventPreview struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	EventDate     time.Time `json:"event_date"`
	Location      string    `json:"location"`
	MaxMembers    int       `json:"max_members"`
	CreatedAt     time.Time `json:"created_at"`
	ApprovedCount int64     `gorm:"-" json:"approved_count"`
}

// EventDetail is the event as seen by its host or an approved member.
type EventDetail struct {
	Event
	ApprovedCount int64  `json:"approved_count"`
	IsHost        bool   `json:"is_host"`
	InviteURL     string `json:"invite_url,omitempty"`
}

// DashboardStats summarizes the caller's events.
type DashboardStats struct {
	HostedEvents        int64 `json:"hosted_events"`
	ParticipatingEvents int64 `json:"participating_events"`
	PendingRequests     int64 `json:"pending_requests"`
	UpcomingEvents      int64 `json:"upcoming_events"`
}

// ============================
// 🟡 Create Event Request
type CreateEventRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Category    string       `json:"category" binding:"required,gather_category"`
	EventDate   time.Time    `json:"event_date" binding:"required,future"` // RFC 3339
	Location    string       `json:"location" binding:"required"`
	MaxMembers  int          `json:"max_members" binding:"required"`
	BankAccount *BankAccount `json:"bank_account,omitempty"`
}

// ============================
// 🟠 Update Event Request (partial; invite code is never editable)
type UpdateEventRequest struct {
	Title             *string      `json:"title"`
	Description       *string      `json:"description"`
	Category          *string      `json:"category" binding:"omitempty,gather_category"`
	EventDate         *time.Time   `json:"event_date" binding:"omitempty,future"`
	Location          *string      `json:"location"`
	MaxMembers        *int         `json:"max_members"`
	BankAccount       *BankAccount `json:"bank_account"`
	RemoveBankAccount bool         `json:"remove_bank_account"`
}

// CloseEventRequest toggles whether new members are accepted.
type CloseEventRequest struct {
	IsClosed *bool `json:"is_closed"`
}
