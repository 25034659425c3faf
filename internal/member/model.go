package member

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership statuses
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// How a row came to exist
const (
	SourceRequest    = "request"
	SourceInviteLink = "invite_link"
)

const inviteLinkMemo = "joined via invite link"

// transitions lists every status change the service accepts.
var transitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusWithdrawn},
}

// CanTransition reports whether from -> to is a valid status change.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsStatus reports whether s is a known membership status.
func IsStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// ============================
// 🔷 GORM EventMember Model
type EventMember struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	EventID    string    `gorm:"size:36;not null;uniqueIndex:idx_event_members_event_user" json:"event_id"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_event_members_event_user;index" json:"user_id"`
	Status     string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	Memo       string    `gorm:"size:500;not null;default:''" json:"memo"`
	JoinSource string    `gorm:"size:20;not null;default:'request'" json:"join_source"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (EventMember) TableName() string {
	return "event_members"
}

func (m *EventMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MemberView is a membership row with the member's public profile fields.
type MemberView struct {
	EventMember
	FullName  string  `json:"full_name"`
	Username  *string `json:"username"`
	AvatarURL string  `json:"avatar_url"`
}

// ============================
// 🟡 Requests
type JoinRequest struct {
	Memo string `json:"memo"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected withdrawn"`
}
