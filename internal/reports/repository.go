package reports

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// MemberRows returns the roster joined with profile names, newest first.
func (r *Repository) MemberRows(ctx context.Context, eventID, status string) ([]MemberReportRow, error) {
	rows := []MemberReportRow{}
	q := r.DB.WithContext(ctx).
		Table("event_members AS m").
		Select(`m.user_id, COALESCE(p.full_name, '') AS full_name, p.username,
			COALESCE(p.email, '') AS email, m.status, m.join_source, m.memo, m.created_at AS joined_at`).
		Joins("LEFT JOIN profiles p ON p.id = m.user_id").
		Where("m.event_id = ?", eventID)
	if status != "" {
		q = q.Where("m.status = ?", status)
	}
	if err := q.Order("m.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("member rows: %w", err)
	}
	return rows, nil
}

// AuditRows returns an event's audit trail; zero from/to leave that side open.
func (r *Repository) AuditRows(ctx context.Context, eventID string, from, to time.Time) ([]AuditLogReportRow, error) {
	rows := []AuditLogReportRow{}
	q := r.DB.WithContext(ctx).
		Table("audit_logs AS a").
		Select(`a.id, COALESCE(p.full_name, a.user_id, '') AS user_name, a.action, a.status,
			a.ip_address, CAST(a.details AS TEXT) AS details, a.created_at AS timestamp`).
		Joins("LEFT JOIN profiles p ON p.id = a.user_id").
		Where("a.event_id = ?", eventID)
	if !from.IsZero() {
		q = q.Where("a.created_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("a.created_at <= ?", to.UTC())
	}
	if err := q.Order("a.created_at DESC").Order("a.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit rows: %w", err)
	}
	return rows, nil
}
