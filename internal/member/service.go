package member

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/internal/notification"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
)

// Service applies the membership policy on top of the repository.
type Service struct {
	Repo      *Repository
	Events    *event.Service
	AuditSvc  auditlog.Service
	Publisher notification.Publisher

	// EnforceCapacity rejects approvals and invite-link joins once
	// max_members approved rows exist.
	EnforceCapacity bool
}

func NewService(repo *Repository, events *event.Service, auditSvc auditlog.Service, publisher notification.Publisher, enforceCapacity bool) *Service {
	return &Service{
		Repo:            repo,
		Events:          events,
		AuditSvc:        auditSvc,
		Publisher:       publisher,
		EnforceCapacity: enforceCapacity,
	}
}

// ===========================
// 🙋 Join request (pending until the host decides)
func (s *Service) RequestJoin(ctx context.Context, accessContext middleware.AccessContext, eventID string, req JoinRequest, ip string) (*EventMember, error) {
	userID := accessContext.UserID

	memo, err := validation.Memo(req.Memo)
	if err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionMemberJoined, err, ip)
		return nil, err
	}

	e, err := s.Events.GetEventByID(ctx, eventID)
	if err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionMemberJoined, err, ip)
		return nil, err
	}
	if e.HostID == userID {
		s.fail(ctx, userID, eventID, auditlog.ActionMemberJoined, ErrHostCannotJoin, ip)
		return nil, ErrHostCannotJoin
	}

	m, err := s.Repo.JoinEvent(ctx, eventID, userID, memo, SourceRequest, 0)
	if err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionMemberJoined, err, ip)
		return nil, err
	}

	s.audit(ctx, userID, eventID, auditlog.ActionMemberJoined, map[string]interface{}{
		"status":      m.Status,
		"join_source": m.JoinSource,
	}, ip, auditlog.StatusSuccess)
	s.publish(ctx, notification.Activity{
		Type:       notification.ActivityMemberJoined,
		EventID:    eventID,
		ActorID:    userID,
		UserID:     userID,
		Status:     m.Status,
		JoinSource: m.JoinSource,
	})
	return m, nil
}

// ===========================
// 🔗 Join via invite link (approved immediately)
// Returns created=false with the existing row when the caller already has one.
func (s *Service) JoinByInviteCode(ctx context.Context, accessContext middleware.AccessContext, code string, ip string) (*EventMember, bool, error) {
	userID := accessContext.UserID

	e, err := s.Events.ResolveInviteCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if e.IsClosed {
		s.fail(ctx, userID, e.ID, auditlog.ActionMemberJoined, ErrEventClosed, ip)
		return nil, false, ErrEventClosed
	}
	if e.HostID == userID {
		return nil, false, ErrHostCannotJoin
	}

	existing, err := s.Repo.GetMemberStatus(ctx, e.ID, userID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	m, err := s.Repo.JoinEvent(ctx, e.ID, userID, inviteLinkMemo, SourceInviteLink, s.seatLimit(e))
	if errors.Is(err, ErrAlreadyMember) {
		// lost a race with a concurrent join of the same user
		if existing, getErr := s.Repo.GetMemberStatus(ctx, e.ID, userID); getErr == nil && existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		s.fail(ctx, userID, e.ID, auditlog.ActionMemberJoined, err, ip)
		return nil, false, err
	}

	s.Events.EvictPreview(ctx, e.InviteCode)
	s.audit(ctx, userID, e.ID, auditlog.ActionMemberJoined, map[string]interface{}{
		"status":      m.Status,
		"join_source": m.JoinSource,
	}, ip, auditlog.StatusSuccess)
	s.publish(ctx, notification.Activity{
		Type:       notification.ActivityMemberJoined,
		EventID:    e.ID,
		ActorID:    userID,
		UserID:     userID,
		Status:     m.Status,
		JoinSource: m.JoinSource,
	})
	return m, true, nil
}

// ===========================
// 🔍 Caller's own membership; nil when there is none
func (s *Service) MyMembership(ctx context.Context, accessContext middleware.AccessContext, eventID string) (*EventMember, error) {
	if _, err := s.Events.GetEventByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.Repo.GetMemberStatus(ctx, eventID, accessContext.UserID)
}

// ===========================
// 📋 Member list (host only)
func (s *Service) ListMembers(ctx context.Context, accessContext middleware.AccessContext, eventID, status string) ([]MemberView, error) {
	if status != "" && !IsStatus(status) {
		return nil, &validation.Error{Field: "status", Message: "must be one of pending, approved, rejected, withdrawn"}
	}
	if _, err := s.Events.RequireHost(ctx, eventID, accessContext.UserID); err != nil {
		return nil, err
	}
	return s.Repo.ListMembers(ctx, eventID, status)
}

// ===========================
// 🔄 Host decision: approve, reject or withdraw a member
func (s *Service) UpdateStatus(ctx context.Context, accessContext middleware.AccessContext, eventID, userID, status, ip string) (*EventMember, error) {
	e, err := s.Events.RequireHost(ctx, eventID, accessContext.UserID)
	if err != nil {
		s.fail(ctx, accessContext.UserID, eventID, auditlog.ActionMemberStatusChanged, err, ip)
		return nil, err
	}

	m, err := s.transition(ctx, e, userID, status)
	if err != nil {
		s.fail(ctx, accessContext.UserID, eventID, auditlog.ActionMemberStatusChanged, err, ip)
		return nil, err
	}

	s.audit(ctx, accessContext.UserID, eventID, auditlog.ActionMemberStatusChanged, map[string]interface{}{
		"member_id": userID,
		"status":    status,
	}, ip, auditlog.StatusSuccess)
	s.publish(ctx, notification.Activity{
		Type:    notification.ActivityMemberStatusChanged,
		EventID: eventID,
		ActorID: accessContext.UserID,
		UserID:  userID,
		Status:  status,
	})
	return m, nil
}

// ===========================
// 👋 Self-withdrawal of an approved member
func (s *Service) Withdraw(ctx context.Context, accessContext middleware.AccessContext, eventID, ip string) (*EventMember, error) {
	userID := accessContext.UserID

	e, err := s.Events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	m, err := s.transition(ctx, e, userID, StatusWithdrawn)
	if err != nil {
		s.fail(ctx, userID, eventID, auditlog.ActionMemberStatusChanged, err, ip)
		return nil, err
	}

	s.audit(ctx, userID, eventID, auditlog.ActionMemberStatusChanged, map[string]interface{}{
		"member_id": userID,
		"status":    StatusWithdrawn,
		"self":      true,
	}, ip, auditlog.StatusSuccess)
	s.publish(ctx, notification.Activity{
		Type:    notification.ActivityMemberStatusChanged,
		EventID: eventID,
		ActorID: userID,
		UserID:  userID,
		Status:  StatusWithdrawn,
	})
	return m, nil
}

func (s *Service) transition(ctx context.Context, e *event.Event, userID, status string) (*EventMember, error) {
	current, err := s.Repo.GetMemberStatus(ctx, e.ID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if !CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	if err := s.Repo.UpdateMemberStatus(ctx, e.ID, userID, current.Status, status, s.seatLimit(e)); err != nil {
		return nil, err
	}
	if status == StatusApproved || current.Status == StatusApproved {
		s.Events.EvictPreview(ctx, e.InviteCode)
	}
	return s.Repo.GetMemberStatus(ctx, e.ID, userID)
}

// ===========================
// ❌ Host removes a member row entirely
func (s *Service) RemoveMember(ctx context.Context, accessContext middleware.AccessContext, eventID, userID, ip string) error {
	e, err := s.Events.RequireHost(ctx, eventID, accessContext.UserID)
	if err != nil {
		s.fail(ctx, accessContext.UserID, eventID, auditlog.ActionMemberRemoved, err, ip)
		return err
	}

	current, err := s.Repo.GetMemberStatus(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if current == nil {
		s.fail(ctx, accessContext.UserID, eventID, auditlog.ActionMemberRemoved, ErrNotFound, ip)
		return ErrNotFound
	}

	if err := s.Repo.DeleteMember(ctx, eventID, userID); err != nil {
		s.fail(ctx, accessContext.UserID, eventID, auditlog.ActionMemberRemoved, err, ip)
		return err
	}
	if current.Status == StatusApproved {
		s.Events.EvictPreview(ctx, e.InviteCode)
	}

	s.audit(ctx, accessContext.UserID, eventID, auditlog.ActionMemberRemoved, map[string]interface{}{
		"member_id":       userID,
		"previous_status": current.Status,
	}, ip, auditlog.StatusSuccess)
	s.publish(ctx, notification.Activity{
		Type:    notification.ActivityMemberStatusChanged,
		EventID: eventID,
		ActorID: accessContext.UserID,
		UserID:  userID,
		Status:  "removed",
	})
	return nil
}

// seatLimit is the approved-row cap passed to the repository, 0 when
// capacity is not enforced.
func (s *Service) seatLimit(e *event.Event) int {
	if !s.EnforceCapacity {
		return 0
	}
	return e.MaxMembers
}

func (s *Service) publish(ctx context.Context, a notification.Activity) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, a); err != nil {
		log.Printf("⚠️ publish %s for event %s: %v", a.Type, a.EventID, err)
	}
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
