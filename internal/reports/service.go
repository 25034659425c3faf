package reports

import (
	"context"
	"time"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
)

var validStatuses = map[string]bool{"": true, "pending": true, "approved": true, "rejected": true, "withdrawn": true}

type Service struct {
	Repo     *Repository
	Events   *event.Service
	Exporter ReportExporter
	AuditSvc auditlog.Service
	now      func() time.Time
}

func NewService(repo *Repository, events *event.Service, exporter ReportExporter, auditSvc auditlog.Service) *Service {
	return &Service{Repo: repo, Events: events, Exporter: exporter, AuditSvc: auditSvc, now: time.Now}
}

// ===========================
// 📤 Member roster export (host only)
func (s *Service) ExportMembers(ctx context.Context, accessContext middleware.AccessContext, eventID, status, format, ip string) (*ExportResult, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, &validation.Error{Field: "format", Message: err.Error()}
	}
	if !validStatuses[status] {
		return nil, &validation.Error{Field: "status", Message: "unknown membership status"}
	}

	e, err := s.Events.RequireHost(ctx, eventID, accessContext.UserID)
	if err != nil {
		s.audit(ctx, accessContext.UserID, eventID, map[string]interface{}{"error": err.Error()}, ip, auditlog.StatusFailure)
		return nil, err
	}

	rows, err := s.Repo.MemberRows(ctx, eventID, status)
	if err != nil {
		return nil, err
	}
	res, err := s.Exporter.Export(ReportTypeMembers, format, ReportData{EventTitle: e.Title, Members: rows})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, accessContext.UserID, eventID, map[string]interface{}{
		"format": format,
		"status": status,
		"rows":   len(rows),
	}, ip, auditlog.StatusSuccess)
	return res, nil
}

// ===========================
// 📤 Audit trail export (host only)
func (s *Service) ExportAuditLogs(ctx context.Context, accessContext middleware.AccessContext, eventID, format, dateRange, startDate, endDate string) (*ExportResult, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, &validation.Error{Field: "format", Message: err.Error()}
	}
	from, to, err := GetDateRange(dateRange, startDate, endDate, s.now())
	if err != nil {
		return nil, &validation.Error{Field: "date_range", Message: err.Error()}
	}

	e, err := s.Events.RequireHost(ctx, eventID, accessContext.UserID)
	if err != nil {
		return nil, err
	}

	rows, err := s.Repo.AuditRows(ctx, eventID, from, to)
	if err != nil {
		return nil, err
	}
	return s.Exporter.Export(ReportTypeAuditLogs, format, ReportData{EventTitle: e.Title, AuditLogs: rows})
}

func (s *Service) audit(ctx context.Context, userID, eventID string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &userID, &eventID, auditlog.ActionMembersExported, details, ip, status)
}
