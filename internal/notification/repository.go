package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("notification not found")

const defaultListLimit = 20

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// ------------------------------
// In-App Notifications
// ------------------------------

func (r *Repository) CreateInApp(ctx context.Context, n *InAppNotification) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *Repository) ListInAppByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]InAppNotification, error) {
	items := []InAppNotification{}
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit <= 0 || limit > 100 {
		limit = defaultListLimit
	}
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&items).Error
	return items, err
}

func (r *Repository) MarkInAppAsRead(ctx context.Context, id uint, userID string) error {
	res := r.DB.WithContext(ctx).
		Model(&InAppNotification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ------------------------------
// Device Tokens
// ------------------------------

// SaveDeviceToken upserts on token so a device moving between accounts follows its latest user.
func (r *Repository) SaveDeviceToken(ctx context.Context, t *DeviceToken) error {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(t).Error
}

func (r *Repository) RemoveDeviceToken(ctx context.Context, userID, token string) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&DeviceToken{}).Error
}

func (r *Repository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("token IN ?", tokens).Delete(&DeviceToken{}).Error
}

func (r *Repository) TokensForUsers(ctx context.Context, userIDs []string) ([]string, error) {
	tokens := []string{}
	if len(userIDs) == 0 {
		return tokens, nil
	}
	err := r.DB.WithContext(ctx).Model(&DeviceToken{}).
		Where("user_id IN ?", userIDs).
		Pluck("token", &tokens).Error
	return tokens, err
}

// ------------------------------
// Recipient lookups
// ------------------------------

type eventSummary struct {
	ID     string
	Title  string
	HostID string
}

func (r *Repository) eventSummary(ctx context.Context, eventID string) (*eventSummary, error) {
	var e eventSummary
	res := r.DB.WithContext(ctx).Table("events").
		Select("id, title, host_id").
		Where("id = ?", eventID).
		Limit(1).
		Scan(&e)
	if res.Error != nil {
		return nil, fmt.Errorf("load event %s: %w", eventID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r *Repository) approvedMemberIDs(ctx context.Context, eventID string) ([]string, error) {
	ids := []string{}
	err := r.DB.WithContext(ctx).Table("event_members").
		Where("event_id = ? AND status = ?", eventID, "approved").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *Repository) recipients(ctx context.Context, userIDs []string) ([]recipient, error) {
	out := []recipient{}
	if len(userIDs) == 0 {
		return out, nil
	}
	err := r.DB.WithContext(ctx).Table("profiles").
		Select("id, email, full_name").
		Where("id IN ?", userIDs).
		Scan(&out).Error
	return out, err
}

func (r *Repository) displayName(ctx context.Context, userID string) string {
	rs, err := r.recipients(ctx, []string{userID})
	if err != nil || len(rs) == 0 || rs[0].FullName == "" {
		return "Someone"
	}
	return rs[0].FullName
}
