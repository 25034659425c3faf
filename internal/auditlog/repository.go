package auditlog

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	GetByFilter(ctx context.Context, filter AuditLogFilter) ([]AuditLogResponse, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts a new audit log entry
func (r *repository) Create(ctx context.Context, log *AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByFilter retrieves audit logs with filtering and pagination, newest first.
func (r *repository) GetByFilter(ctx context.Context, filter AuditLogFilter) ([]AuditLogResponse, int64, error) {
	var logs []AuditLogResponse
	var total int64

	query := r.db.WithContext(ctx).
		Table("audit_logs al").
		Select(`
			al.id, al.user_id, al.event_id, al.action,
			al.details, al.ip_address, al.status, al.created_at,
			p.full_name as user_name,
			e.title as event_title
		`).
		Joins("LEFT JOIN profiles p ON al.user_id = p.id").
		Joins("LEFT JOIN events e ON al.event_id = e.id")

	if filter.UserID != nil {
		query = query.Where("al.user_id = ?", *filter.UserID)
	}
	if filter.EventID != nil {
		query = query.Where("al.event_id = ?", *filter.EventID)
	}
	if filter.Action != "" {
		query = query.Where("al.action = ?", filter.Action)
	}
	if filter.Status != "" {
		query = query.Where("al.status = ?", filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("al.created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("al.created_at <= ?", *filter.ToDate)
	}

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.Order("al.created_at DESC").Order("al.id DESC").
		Limit(filter.Limit).
		Offset(offset).
		Scan(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
