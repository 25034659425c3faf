package event

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const inviteCodeAttempts = 5

// Service wraps business logic for events
type Service struct {
	Repo        *Repository
	AuditSvc    auditlog.Service
	Cache       *PreviewCache
	FrontendURL string

	now     func() time.Time
	newCode func() (string, error)
}

func NewService(r *Repository, auditSvc auditlog.Service, cache *PreviewCache, frontendURL string) *Service {
	return &Service{
		Repo:        r,
		AuditSvc:    auditSvc,
		Cache:       cache,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
		newCode:     NewInviteCode,
	}
}

// ===========================
// 🎯 Create Event (caller becomes host)
func (s *Service) CreateEvent(ctx context.Context, accessContext middleware.AccessContext, req *CreateEventRequest, ip string) (*EventDetail, error) {
	e, err := s.eventFromRequest(accessContext.UserID, req)
	if err != nil {
		s.audit(ctx, accessContext.UserID, nil, auditlog.ActionEventCreated, map[string]interface{}{
			"title": req.Title,
			"error": err.Error(),
		}, ip, auditlog.StatusFailure)
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		e.InviteCode = code

		err = s.Repo.CreateEvent(ctx, e)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < inviteCodeAttempts {
			log.Printf("⚠️ invite code collision on attempt %d, retrying", attempt)
			continue
		}
		s.audit(ctx, accessContext.UserID, nil, auditlog.ActionEventCreated, map[string]interface{}{
			"title": e.Title,
			"error": err.Error(),
		}, ip, auditlog.StatusFailure)
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.audit(ctx, accessContext.UserID, &e.ID, auditlog.ActionEventCreated, map[string]interface{}{
		"title":       e.Title,
		"category":    e.Category,
		"event_date":  e.EventDate.Format(time.RFC3339),
		"max_members": e.MaxMembers,
		"invite_code": e.InviteCode,
	}, ip, auditlog.StatusSuccess)

	return s.detail(e, 0, true), nil
}

func (s *Service) eventFromRequest(hostID string, req *CreateEventRequest) (*Event, error) {
	title, err := validation.Title(req.Title)
	if err != nil {
		return nil, err
	}
	description, err := validation.Description(req.Description)
	if err != nil {
		return nil, err
	}
	category, err := validation.Category(req.Category)
	if err != nil {
		return nil, err
	}
	if err := validation.FutureDate(req.EventDate, s.now()); err != nil {
		return nil, err
	}
	location, err := validation.Location(req.Location)
	if err != nil {
		return nil, err
	}
	if err := validation.MaxMembers(req.MaxMembers); err != nil {
		return nil, err
	}
	bank, err := normalizeBankAccount(req.BankAccount)
	if err != nil {
		return nil, err
	}

	return &Event{
		HostID:      hostID,
		Title:       title,
		Description: description,
		Category:    category,
		EventDate:   req.EventDate.UTC(),
		Location:    location,
		MaxMembers:  req.MaxMembers,
		BankAccount: datatypes.NewJSONType(bank),
	}, nil
}

// normalizeBankAccount trims fields and collapses an all-empty account to nil.
func normalizeBankAccount(b *BankAccount) (*BankAccount, error) {
	if b == nil {
		return nil, nil
	}
	var out BankAccount
	var err error
	if out.Bank, err = validation.Bounded("bank_account.bank", b.Bank, 0, validation.BankFieldMax); err != nil {
		return nil, err
	}
	if out.Account, err = validation.Bounded("bank_account.account", b.Account, 0, validation.BankFieldMax); err != nil {
		return nil, err
	}
	if out.Name, err = validation.Bounded("bank_account.name", b.Name, 0, validation.BankFieldMax); err != nil {
		return nil, err
	}
	if out == (BankAccount{}) {
		return nil, nil
	}
	return &out, nil
}

// ===========================
// 🔍 Get Event by ID (no authorization)
func (s *Service) GetEventByID(ctx context.Context, id string) (*Event, error) {
	return s.Repo.GetEventByID(ctx, id)
}

// ===========================
// 🔍 Event detail for the host or an approved member
func (s *Service) GetEventDetail(ctx context.Context, accessContext middleware.AccessContext, id string) (*EventDetail, error) {
	e, isHost, err := s.Viewer(ctx, id, accessContext.UserID)
	if err != nil {
		return nil, err
	}
	count, err := s.Repo.CountApproved(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("count approved: %w", err)
	}
	return s.detail(e, count, isHost), nil
}

func (s *Service) detail(e *Event, approved int64, isHost bool) *EventDetail {
	d := &EventDetail{Event: *e, ApprovedCount: approved, IsHost: isHost}
	if isHost && s.FrontendURL != "" {
		d.InviteURL = s.FrontendURL + "/join/" + e.InviteCode
	}
	return d
}

// Viewer loads the event if userID is its host or an approved member.
func (s *Service) Viewer(ctx context.Context, eventID, userID string) (*Event, bool, error) {
	e, err := s.Repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	if e.HostID == userID {
		return e, true, nil
	}
	ok, err := s.Repo.IsApprovedMember(ctx, eventID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return nil, false, ErrForbidden
	}
	return e, false, nil
}

// RequireHost loads the event and fails with ErrNotHost unless userID hosts it.
func (s *Service) RequireHost(ctx context.Context, eventID, userID string) (*Event, error) {
	e, err := s.Repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.HostID != userID {
		return nil, ErrNotHost
	}
	return e, nil
}

// IsHost satisfies the audit handler's host check.
func (s *Service) IsHost(ctx context.Context, eventID, userID string) (bool, error) {
	return s.Repo.IsHost(ctx, eventID, userID)
}

// ===========================
// 🔗 Invite preview (public)
func (s *Service) GetEventByInviteCode(ctx context.Context, code string) (*EventPreview, error) {
	code = NormalizeInviteCode(code)
	if !ValidInviteCode(code) {
		return nil, ErrNotFound
	}

	if p, ok := s.Cache.Get(ctx, code); ok {
		return p, nil
	}

	p, err := s.Repo.GetEventByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.ApprovedCount, err = s.Repo.CountApproved(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("count approved: %w", err)
	}

	s.Cache.Set(ctx, code, p)
	return p, nil
}

// ResolveInviteCode returns the full event behind a code for the join flow.
func (s *Service) ResolveInviteCode(ctx context.Context, code string) (*Event, error) {
	code = NormalizeInviteCode(code)
	if !ValidInviteCode(code) {
		return nil, ErrNotFound
	}
	p, err := s.Repo.GetEventByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetEventByID(ctx, p.ID)
}

// EvictPreview drops a cached preview after membership or event changes.
func (s *Service) EvictPreview(ctx context.Context, code string) {
	s.Cache.Evict(ctx, code)
}

// ===========================
// 📋 Listings
func (s *Service) ListHostedEvents(ctx context.Context, userID string) ([]Event, error) {
	return s.Repo.ListHostedEvents(ctx, userID)
}

func (s *Service) ListParticipatingEvents(ctx context.Context, userID string) ([]Event, error) {
	return s.Repo.ListParticipatingEvents(ctx, userID)
}

// ===========================
// 📊 Dashboard
func (s *Service) Dashboard(ctx context.Context, accessContext middleware.AccessContext) (*DashboardStats, error) {
	return s.Repo.GetDashboardStats(ctx, accessContext.UserID, s.now().UTC())
}

// ===========================
// 🛠 Update Event (host only, partial)
func (s *Service) UpdateEvent(ctx context.Context, accessContext middleware.AccessContext, id string, req *UpdateEventRequest, ip string) (*EventDetail, error) {
	e, err := s.RequireHost(ctx, id, accessContext.UserID)
	if err != nil {
		s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventUpdated, map[string]interface{}{"error": err.Error()}, ip, auditlog.StatusFailure)
		return nil, err
	}

	updates, err := s.updatesFromRequest(req)
	if err != nil {
		s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventUpdated, map[string]interface{}{"error": err.Error()}, ip, auditlog.StatusFailure)
		return nil, err
	}

	if len(updates) > 0 {
		updates["updated_at"] = s.now().UTC()
		if err := s.Repo.UpdateEvent(ctx, id, updates); err != nil {
			s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventUpdated, map[string]interface{}{"error": err.Error()}, ip, auditlog.StatusFailure)
			return nil, err
		}
		s.Cache.Evict(ctx, e.InviteCode)
	}

	fields := make([]string, 0, len(updates))
	for k := range updates {
		if k != "updated_at" {
			fields = append(fields, k)
		}
	}
	s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventUpdated, map[string]interface{}{"fields": fields}, ip, auditlog.StatusSuccess)

	return s.GetEventDetail(ctx, accessContext, id)
}

func (s *Service) updatesFromRequest(req *UpdateEventRequest) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if req.Title != nil {
		v, err := validation.Title(*req.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = v
	}
	if req.Description != nil {
		v, err := validation.Description(*req.Description)
		if err != nil {
			return nil, err
		}
		updates["description"] = v
	}
	if req.Category != nil {
		v, err := validation.Category(*req.Category)
		if err != nil {
			return nil, err
		}
		updates["category"] = v
	}
	if req.EventDate != nil {
		if err := validation.FutureDate(*req.EventDate, s.now()); err != nil {
			return nil, err
		}
		updates["event_date"] = req.EventDate.UTC()
	}
	if req.Location != nil {
		v, err := validation.Location(*req.Location)
		if err != nil {
			return nil, err
		}
		updates["location"] = v
	}
	if req.MaxMembers != nil {
		if err := validation.MaxMembers(*req.MaxMembers); err != nil {
			return nil, err
		}
		updates["max_members"] = *req.MaxMembers
	}
	if req.RemoveBankAccount {
		updates["bank_account"] = datatypes.NewJSONType[*BankAccount](nil)
	} else if req.BankAccount != nil {
		bank, err := normalizeBankAccount(req.BankAccount)
		if err != nil {
			return nil, err
		}
		updates["bank_account"] = datatypes.NewJSONType(bank)
	}
	return updates, nil
}

// ===========================
// 🔒 Close / reopen (host only)
func (s *Service) SetClosed(ctx context.Context, accessContext middleware.AccessContext, id string, closed bool, ip string) (*EventDetail, error) {
	e, err := s.RequireHost(ctx, id, accessContext.UserID)
	if err != nil {
		s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventClosed, map[string]interface{}{"is_closed": closed, "error": err.Error()}, ip, auditlog.StatusFailure)
		return nil, err
	}

	if e.IsClosed != closed {
		if err := s.Repo.UpdateEvent(ctx, id, map[string]interface{}{"is_closed": closed, "updated_at": s.now().UTC()}); err != nil {
			s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventClosed, map[string]interface{}{"is_closed": closed, "error": err.Error()}, ip, auditlog.StatusFailure)
			return nil, err
		}
	}

	s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventClosed, map[string]interface{}{"is_closed": closed}, ip, auditlog.StatusSuccess)
	return s.GetEventDetail(ctx, accessContext, id)
}

// ===========================
// ❌ Delete Event (host only)
func (s *Service) DeleteEvent(ctx context.Context, accessContext middleware.AccessContext, id string, ip string) error {
	e, err := s.RequireHost(ctx, id, accessContext.UserID)
	if err != nil {
		s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventDeleted, map[string]interface{}{"error": err.Error()}, ip, auditlog.StatusFailure)
		return err
	}

	if err := s.Repo.DeleteEvent(ctx, id); err != nil {
		s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventDeleted, map[string]interface{}{"title": e.Title, "error": err.Error()}, ip, auditlog.StatusFailure)
		return err
	}
	s.Cache.Evict(ctx, e.InviteCode)

	s.audit(ctx, accessContext.UserID, &id, auditlog.ActionEventDeleted, map[string]interface{}{"title": e.Title}, ip, auditlog.StatusSuccess)
	return nil
}

func (s *Service) audit(ctx context.Context, userID string, eventID *string, action string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &userID, eventID, action, details, ip, status)
}
