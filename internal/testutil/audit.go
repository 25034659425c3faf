package testutil

import (
	"context"
	"sync"

	"github.com/gather-app/gather-backend/internal/auditlog"
)

// AuditEntry is one recorded LogAction call.
type AuditEntry struct {
	UserID  string
	EventID string
	Action  string
	Details map[string]interface{}
	Status  string
}

// AuditRecorder is an in-memory auditlog.Service.
type AuditRecorder struct {
	mu      sync.Mutex
	Entries []AuditEntry
}

func (r *AuditRecorder) LogAction(_ context.Context, userID *string, eventID *string, action string, details map[string]interface{}, _ string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := AuditEntry{Action: action, Details: details, Status: status}
	if userID != nil {
		e.UserID = *userID
	}
	if eventID != nil {
		e.EventID = *eventID
	}
	r.Entries = append(r.Entries, e)
	return nil
}

func (r *AuditRecorder) GetAuditLogs(context.Context, auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

// Has reports whether an entry with action and status was recorded.
func (r *AuditRecorder) Has(action, status string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Entries {
		if e.Action == action && e.Status == status {
			return true
		}
	}
	return false
}
