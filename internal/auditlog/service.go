package auditlog

import (
	"context"
	"encoding/json"
	"log"
	"math"
)

type Service interface {
	LogAction(ctx context.Context, userID *string, eventID *string, action string, details map[string]interface{}, ip string, status string) error
	GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// LogAction creates a new audit log entry. A failed write is logged and
// returned but never blocks the caller's operation.
func (s *service) LogAction(ctx context.Context, userID *string, eventID *string, action string, details map[string]interface{}, ip string, status string) error {
	if details == nil {
		details = make(map[string]interface{})
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	entry := &AuditLog{
		UserID:    userID,
		EventID:   eventID,
		Action:    action,
		Details:   detailsJSON,
		IPAddress: ip,
		Status:    status,
	}

	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("⚠️ audit log %s failed: %v", action, err)
		return err
	}
	return nil
}

// GetAuditLogs retrieves paginated audit logs with filters
func (s *service) GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	logs, total, err := s.repo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []AuditLogResponse{}
	}

	return &PaginatedAuditLogs{
		Data:       logs,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}
