package announcement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("announcement not found")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// ===========================
// 📋 Pinned first, newest first inside each group
func (r *Repository) ListAnnouncements(ctx context.Context, eventID string) ([]Announcement, error) {
	items := []Announcement{}
	err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("is_pinned DESC").
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return items, nil
}

func (r *Repository) GetAnnouncementByID(ctx context.Context, id string) (*Announcement, error) {
	var a Announcement
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement %s: %w", id, err)
	}
	return &a, nil
}

// CreateAnnouncement stores already validated input.
func (r *Repository) CreateAnnouncement(ctx context.Context, eventID, authorID string, input CreateAnnouncementRequest) (*Announcement, error) {
	now := time.Now().UTC()
	a := &Announcement{
		EventID:   eventID,
		AuthorID:  authorID,
		Title:     input.Title,
		Content:   input.Content,
		IsPinned:  input.IsPinned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.DB.WithContext(ctx).Create(a).Error; err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return a, nil
}

// UpdateAnnouncement writes only the supplied columns and bumps updated_at.
func (r *Repository) UpdateAnnouncement(ctx context.Context, id string, patch map[string]interface{}) error {
	patch["updated_at"] = time.Now().UTC()
	res := r.DB.WithContext(ctx).Model(&Announcement{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return fmt.Errorf("update announcement %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteAnnouncement(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&Announcement{})
	if res.Error != nil {
		return fmt.Errorf("delete announcement %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
