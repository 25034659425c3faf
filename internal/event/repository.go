package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("event not found")
	ErrNotHost     = errors.New("only the host can do this")
	ErrForbidden   = errors.New("only the host or approved members can view this event")
	ErrEventClosed = errors.New("event is closed to new members")
)

const (
	memberStatusPending  = "pending"
	memberStatusApproved = "approved"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// ===========================
// 🎯 Create Event
func (r *Repository) CreateEvent(ctx context.Context, e *Event) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

// ===========================
// 🔍 Get Event By ID (no authorization at this layer)
func (r *Repository) GetEventByID(ctx context.Context, id string) (*Event, error) {
	var e Event
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &e, nil
}

// ===========================
// 🔗 Get public preview by invite code
func (r *Repository) GetEventByInviteCode(ctx context.Context, code string) (*EventPreview, error) {
	var p EventPreview
	res := r.DB.WithContext(ctx).
		Model(&Event{}).
		Select("id, title, description, category, event_date, location, max_members, created_at").
		Where("invite_code = ?", code).
		Limit(1).
		Scan(&p)
	if res.Error != nil {
		return nil, fmt.Errorf("get event by invite code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ===========================
// 📋 Events hosted by a user, latest date first
func (r *Repository) ListHostedEvents(ctx context.Context, userID string) ([]Event, error) {
	events := []Event{}
	err := r.DB.WithContext(ctx).
		Where("host_id = ?", userID).
		Order("event_date DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list hosted events: %w", err)
	}
	return events, nil
}

// ===========================
// 📋 Events a user is approved in, latest date first
func (r *Repository) ListParticipatingEvents(ctx context.Context, userID string) ([]Event, error) {
	var eventIDs []string
	err := r.DB.WithContext(ctx).
		Table("event_members").
		Where("user_id = ? AND status = ?", userID, memberStatusApproved).
		Pluck("event_id", &eventIDs).Error
	if err != nil {
		return nil, fmt.Errorf("list approved memberships: %w", err)
	}

	events := []Event{}
	if len(eventIDs) == 0 {
		return events, nil
	}

	err = r.DB.WithContext(ctx).
		Where("id IN ?", eventIDs).
		Order("event_date DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list participating events: %w", err)
	}
	return events, nil
}

// ===========================
// 🛠 Update selected columns
func (r *Repository) UpdateEvent(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update event %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===========================
// ❌ Delete Event with its announcements and members
func (r *Repository) DeleteEvent(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM announcements WHERE event_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete announcements: %w", err)
		}
		if err := tx.Exec("DELETE FROM event_members WHERE event_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete members: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&Event{})
		if res.Error != nil {
			return fmt.Errorf("delete event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ===========================
// 🔐 Host / membership checks
func (r *Repository) IsHost(ctx context.Context, eventID, userID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&Event{}).
		Where("id = ? AND host_id = ?", eventID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) IsApprovedMember(ctx context.Context, eventID, userID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Table("event_members").
		Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, memberStatusApproved).
		Count(&count).Error
	return count > 0, err
}

// ===========================
// 🔢 Count approved members of an event
func (r *Repository) CountApproved(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Table("event_members").
		Where("event_id = ? AND status = ?", eventID, memberStatusApproved).
		Count(&count).Error
	return count, err
}

// ===========================
// 📊 Dashboard counts for a user
func (r *Repository) GetDashboardStats(ctx context.Context, userID string, now time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.DB.WithContext(ctx)

	if err := db.Model(&Event{}).Where("host_id = ?", userID).Count(&stats.HostedEvents).Error; err != nil {
		return nil, fmt.Errorf("count hosted: %w", err)
	}

	if err := db.Table("event_members").
		Where("user_id = ? AND status = ?", userID, memberStatusApproved).
		Count(&stats.ParticipatingEvents).Error; err != nil {
		return nil, fmt.Errorf("count participating: %w", err)
	}

	if err := db.Table("event_members").
		Joins("JOIN events ON events.id = event_members.event_id").
		Where("events.host_id = ? AND event_members.status = ?", userID, memberStatusPending).
		Count(&stats.PendingRequests).Error; err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}

	approved := db.Table("event_members").
		Select("event_id").
		Where("user_id = ? AND status = ?", userID, memberStatusApproved)
	if err := db.Model(&Event{}).
		Where("event_date >= ?", now).
		Where(db.Where("host_id = ?", userID).Or("id IN (?)", approved)).
		Count(&stats.UpcomingEvents).Error; err != nil {
		return nil, fmt.Errorf("count upcoming: %w", err)
	}

	return &stats, nil
}
