package announcement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================
// 🔷 GORM Announcement Model
type Announcement struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	EventID   string    `gorm:"size:36;not null;index" json:"event_id"`
	AuthorID  string    `gorm:"size:36;not null" json:"author_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsPinned  bool      `gorm:"not null;default:false" json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Announcement) TableName() string {
	return "announcements"
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// ============================
// 🟡 Create Announcement Request
type CreateAnnouncementRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	IsPinned bool   `json:"is_pinned"`
}

// ============================
// 🟠 Update Announcement Request (only supplied fields change)
type UpdateAnnouncementRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPinned *bool   `json:"is_pinned"`
}
