package announcement

import (
	"context"
	"log"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/internal/notification"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
)

type Service struct {
	Repo      *Repository
	Events    *event.Service
	AuditSvc  auditlog.Service
	Publisher notification.Publisher
}

func NewService(repo *Repository, events *event.Service, auditSvc auditlog.Service, publisher notification.Publisher) *Service {
	return &Service{Repo: repo, Events: events, AuditSvc: auditSvc, Publisher: publisher}
}

// ===========================
// 📋 Announcements of an event (host or approved member)
func (s *Service) ListAnnouncements(ctx context.Context, accessContext middleware.AccessContext, eventID string) ([]Announcement, error) {
	if _, _, err := s.Events.Viewer(ctx, eventID, accessContext.UserID); err != nil {
		return nil, err
	}
	return s.Repo.ListAnnouncements(ctx, eventID)
}

// ===========================
// 🔍 One announcement (host or approved member of its event)
func (s *Service) GetAnnouncement(ctx context.Context, accessContext middleware.AccessContext, id string) (*Announcement, error) {
	a, err := s.Repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.Events.Viewer(ctx, a.EventID, accessContext.UserID); err != nil {
		return nil, err
	}
	return a, nil
}

// ===========================
// 📣 Create (host only)
func (s *Service) CreateAnnouncement(ctx context.Context, accessContext middleware.AccessContext, eventID string, req CreateAnnouncementRequest, ip string) (*Announcement, error) {
	userID := accessContext.UserID

	if _, err := s.Events.RequireHost(ctx, eventID, userID); err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionAnnouncementCreated, err, ip)
		return nil, err
	}

	title, err := validation.Title(req.Title)
	if err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionAnnouncementCreated, err, ip)
		return nil, err
	}
	content, err := validation.AnnouncementContent(req.Content)
	if err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionAnnouncementCreated, err, ip)
		return nil, err
	}

	a, err := s.Repo.CreateAnnouncement(ctx, eventID, userID, CreateAnnouncementRequest{
		Title:    title,
		Content:  content,
		IsPinned: req.IsPinned,
	})
	if err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionAnnouncementCreated, err, ip)
		return nil, err
	}

	s.audit(ctx, userID, eventID, auditlog.ActionAnnouncementCreated, map[string]interface{}{
		"announcement_id": a.ID,
		"title":           a.Title,
		"is_pinned":       a.IsPinned,
	}, ip, auditlog.StatusSuccess)

	if s.Publisher != nil {
		err := s.Publisher.Publish(ctx, notification.Activity{
			Type:           notification.ActivityAnnouncementCreated,
			EventID:        eventID,
			ActorID:        userID,
			AnnouncementID: a.ID,
			Title:          a.Title,
		})
		if err != nil {
			log.Printf("⚠️ publish announcement %s: %v", a.ID, err)
		}
	}
	return a, nil
}

// ===========================
// 🛠 Partial update (host only)
func (s *Service) UpdateAnnouncement(ctx context.Context, accessContext middleware.AccessContext, id string, req UpdateAnnouncementRequest, ip string) (*Announcement, error) {
	userID := accessContext.UserID

	a, err := s.Repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Events.RequireHost(ctx, a.EventID, userID); err != nil {
		s.fail(ctx, userID, a.EventID, auditlog.ActionAnnouncementUpdated, err, ip)
		return nil, err
	}

	patch := map[string]interface{}{}
	if req.Title != nil {
		v, err := validation.Title(*req.Title)
		if err != nil {
			s.fail(ctx, userID, a.EventID, auditlog.ActionAnnouncementUpdated, err, ip)
			return nil, err
		}
		patch["title"] = v
	}
	if req.Content != nil {
		v, err := validation.AnnouncementContent(*req.Content)
		if err != nil {
			s.fail(ctx, userID, a.EventID, auditlog.ActionAnnouncementUpdated, err, ip)
			return nil, err
		}
		patch["content"] = v
	}
	if req.IsPinned != nil {
		patch["is_pinned"] = *req.IsPinned
	}
	if len(patch) == 0 {
		return a, nil
	}

	fields := make([]string, 0, len(patch))
	for k := range patch {
		fields = append(fields, k)
	}
	if err := s.Repo.UpdateAnnouncement(ctx, id, patch); err != nil {
		s.fail(ctx, userID, a.EventID, auditlog.ActionAnnouncementUpdated, err, ip)
		return nil, err
	}

	s.audit(ctx, userID, a.EventID, auditlog.ActionAnnouncementUpdated, map[string]interface{}{
		"announcement_id": id,
		"fields":          fields,
	}, ip, auditlog.StatusSuccess)
	return s.Repo.GetAnnouncementByID(ctx, id)
}

// ===========================
// ❌ Delete (host only)
func (s *Service) DeleteAnnouncement(ctx context.Context, accessContext middleware.AccessContext, id string, ip string) error {
	userID := accessContext.UserID

	a, err := s.Repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.Events.RequireHost(ctx, a.EventID, userID); err != nil {
		s.fail(ctx, userID, a.EventID, auditlog.ActionAnnouncementDeleted, err, ip)
		return err
	}
	if err := s.Repo.DeleteAnnouncement(ctx, id); err != nil {
		s.fail(ctx, userID, a.EventID, auditlog.ActionAnnouncementDeleted, err, ip)
		return err
	}

	s.audit(ctx, userID, a.EventID, auditlog.ActionAnnouncementDeleted, map[string]interface{}{
		"announcement_id": id,
		"title":           a.Title,
	}, ip, auditlog.StatusSuccess)
	return nil
}

func (s *Service) fail(ctx context.Context, userID, eventID, action string, err error, ip string) {
	s.audit(ctx, userID, eventID, action, map[string]interface{}{"error": err.Error()}, ip, auditlog.StatusFailure)
}

func (s *Service) audit(ctx context.Context, userID, eventID, action string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &userID, &eventID, action, details, ip, status)
}
