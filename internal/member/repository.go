package member

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gather-app/gather-backend/internal/event"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound          = errors.New("membership not found")
	ErrAlreadyMember     = errors.New("already a member of this event")
	ErrInvalidTransition = errors.New("invalid membership status transition")
	ErrCapacityReached   = errors.New("event is full")
	ErrHostCannotJoin    = errors.New("host cannot join their own event")

	ErrEventNotFound = event.ErrNotFound
	ErrEventClosed   = event.ErrEventClosed
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// ===========================
// 📋 Members of an event, newest first, optionally filtered by status
func (r *Repository) ListMembers(ctx context.Context, eventID, status string) ([]MemberView, error) {
	members := []MemberView{}
	q := r.DB.WithContext(ctx).
		Table("event_members").
		Select("event_members.*, COALESCE(profiles.full_name, '') AS full_name, profiles.username, COALESCE(profiles.avatar_url, '') AS avatar_url").
		Joins("LEFT JOIN profiles ON profiles.id = event_members.user_id").
		Where("event_members.event_id = ?", eventID)
	if status != "" {
		q = q.Where("event_members.status = ?", status)
	}
	if err := q.Order("event_members.created_at DESC").Scan(&members).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// GetMemberStatus returns (nil, nil) when the user has no row for the event.
func (r *Repository) GetMemberStatus(ctx context.Context, eventID, userID string) (*EventMember, error) {
	var m EventMember
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member status: %w", err)
	}
	return &m, nil
}

// lockEvent loads the event row FOR UPDATE so membership writes on one event
// serialize. SQLite ignores the locking clause and serializes on its own.
func lockEvent(tx *gorm.DB, eventID string) (*event.Event, error) {
	var ev event.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id, is_closed, max_members").
		Where("id = ?", eventID).
		First(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	return &ev, nil
}

// checkSeats fails with ErrCapacityReached when limit approved rows already
// exist. limit <= 0 means unlimited.
func checkSeats(tx *gorm.DB, eventID string, limit int) error {
	if limit <= 0 {
		return nil
	}
	var approved int64
	if err := tx.Model(&EventMember{}).
		Where("event_id = ? AND status = ?", eventID, StatusApproved).
		Count(&approved).Error; err != nil {
		return fmt.Errorf("count approved: %w", err)
	}
	if approved >= int64(limit) {
		return ErrCapacityReached
	}
	return nil
}

// ===========================
// ➕ Insert a membership row
// Request joins start pending, invite-link joins start approved. The unique
// (event_id, user_id) index is the real guard; the lookup is an early exit.
// limit caps approved rows for invite-link joins (0 = no cap).
func (r *Repository) JoinEvent(ctx context.Context, eventID, userID, memo, source string, limit int) (*EventMember, error) {
	status := StatusPending
	if source == SourceInviteLink {
		status = StatusApproved
	}
	now := time.Now().UTC()
	m := &EventMember{
		EventID:    eventID,
		UserID:     userID,
		Status:     status,
		Memo:       memo,
		JoinSource: source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if ev.IsClosed {
			return ErrEventClosed
		}

		var existing int64
		if err := tx.Model(&EventMember{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyMember
		}

		if status == StatusApproved {
			if err := checkSeats(tx, eventID, limit); err != nil {
				return err
			}
		}

		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("insert member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ===========================
// 🔄 Move a member from one status to another
// The write only applies while the row still holds from; a row that changed
// underneath fails with ErrInvalidTransition. limit caps approved rows when
// to is approved (0 = no cap).
func (r *Repository) UpdateMemberStatus(ctx context.Context, eventID, userID, from, to string, limit int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEvent(tx, eventID); err != nil {
			return err
		}
		if to == StatusApproved {
			if err := checkSeats(tx, eventID, limit); err != nil {
				return err
			}
		}

		res := tx.Model(&EventMember{}).
			Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, from).
			Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("update member status: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var current EventMember
		err := tx.Select("status").Where("event_id = ? AND user_id = ?", eventID, userID).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reload member status: %w", err)
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	})
}

// ===========================
// ❌ Remove a membership row
func (r *Repository) DeleteMember(ctx context.Context, eventID, userID string) error {
	res := r.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&EventMember{})
	if res.Error != nil {
		return fmt.Errorf("delete member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
