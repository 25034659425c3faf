package member

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/internal/notification"
	"github.com/gather-app/gather-backend/internal/profile"
	"github.com/gather-app/gather-backend/internal/testutil"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu         sync.Mutex
	activities []notification.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, a notification.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, a)
	return nil
}

func (p *recordingPublisher) last() notification.Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.activities) == 0 {
		return notification.Activity{}
	}
	return p.activities[len(p.activities)-1]
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	events *event.Service
	audit  *testutil.AuditRecorder
	pub    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t, &profile.Profile{}, &event.Event{}, &EventMember{})
	audit := &testutil.AuditRecorder{}
	pub := &recordingPublisher{}
	events := event.NewService(event.NewRepository(db), audit, nil, "")
	return &fixture{
		db:     db,
		svc:    NewService(NewRepository(db), events, audit, pub, false),
		events: events,
		audit:  audit,
		pub:    pub,
	}
}

func user(id string) middleware.AccessContext {
	return middleware.AccessContext{UserID: id}
}

func (f *fixture) newEvent(t *testing.T, hostID string, maxMembers int) *event.EventDetail {
	t.Helper()
	d, err := f.events.CreateEvent(context.Background(), user(hostID), &event.CreateEventRequest{
		Title:      "Climbing night",
		Category:   validation.CategorySocial,
		EventDate:  time.Now().Add(48 * time.Hour),
		Location:   "Seoul forest gym",
		MaxMembers: maxMembers,
	}, "")
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return d
}

func (f *fixture) rows(t *testing.T, eventID, userID string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&EventMember{}).Where("event_id = ? AND user_id = ?", eventID, userID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCanTransition(t *testing.T) {
	valid := map[[2]string]bool{
		{StatusPending, StatusApproved}:   true,
		{StatusPending, StatusRejected}:   true,
		{StatusApproved, StatusWithdrawn}: true,
	}
	all := []string{StatusPending, StatusApproved, StatusRejected, StatusWithdrawn}
	for _, from := range all {
		for _, to := range all {
			if got := CanTransition(from, to); got != valid[[2]string{from, to}] {
				t.Errorf("CanTransition(%s, %s) = %v", from, to, got)
			}
		}
	}
}

func TestRequestJoinAndDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)

	m, err := f.svc.RequestJoin(ctx, user("guest"), e.ID, JoinRequest{Memo: "  I'll bring chalk "}, "10.0.0.1")
	if err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if m.Status != StatusPending || m.JoinSource != SourceRequest || m.Memo != "I'll bring chalk" {
		t.Errorf("member = %+v", m)
	}
	if a := f.pub.last(); a.Type != notification.ActivityMemberJoined || a.UserID != "guest" || a.Status != StatusPending {
		t.Errorf("activity = %+v", a)
	}

	if _, err := f.svc.RequestJoin(ctx, user("guest"), e.ID, JoinRequest{}, ""); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("duplicate join err = %v, want ErrAlreadyMember", err)
	}
	if n := f.rows(t, e.ID, "guest"); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
	if !f.audit.Has(auditlog.ActionMemberJoined, auditlog.StatusFailure) {
		t.Error("duplicate join not audited as failure")
	}
}

func TestJoinEventRejectsDuplicateAtStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)

	// bypass the pre-check to hit the unique index directly
	if err := f.db.Create(&EventMember{EventID: e.ID, UserID: "guest", Status: StatusPending, JoinSource: SourceRequest}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := f.db.Create(&EventMember{EventID: e.ID, UserID: "guest", Status: StatusPending, JoinSource: SourceRequest}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second insert err = %v, want ErrDuplicatedKey", err)
	}
	if _, err := f.svc.Repo.JoinEvent(ctx, e.ID, "guest", "", SourceInviteLink, 0); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("JoinEvent err = %v, want ErrAlreadyMember", err)
	}
}

func TestJoinByInviteCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)

	m, created, err := f.svc.JoinByInviteCode(ctx, user("guest"), e.InviteCode, "")
	if err != nil {
		t.Fatalf("JoinByInviteCode: %v", err)
	}
	if !created || m.Status != StatusApproved || m.JoinSource != SourceInviteLink || m.Memo != "joined via invite link" {
		t.Errorf("member = %+v created=%v", m, created)
	}

	again, created, err := f.svc.JoinByInviteCode(ctx, user("guest"), e.InviteCode, "")
	if err != nil || created || again.ID != m.ID {
		t.Errorf("second join = %+v created=%v err=%v", again, created, err)
	}

	p, err := f.events.GetEventByInviteCode(ctx, e.InviteCode)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p.ApprovedCount != 1 {
		t.Errorf("approved count = %d, want 1", p.ApprovedCount)
	}

	if _, _, err := f.svc.JoinByInviteCode(ctx, user("guest"), "ZZZZ9999", ""); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("unknown code err = %v", err)
	}
	if _, _, err := f.svc.JoinByInviteCode(ctx, user("host"), e.InviteCode, ""); !errors.Is(err, ErrHostCannotJoin) {
		t.Errorf("host join err = %v", err)
	}
}

func TestInviteJoinWhilePendingIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)

	if _, err := f.svc.RequestJoin(ctx, user("guest"), e.ID, JoinRequest{}, ""); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	m, created, err := f.svc.JoinByInviteCode(ctx, user("guest"), e.InviteCode, "")
	if err != nil {
		t.Fatalf("JoinByInviteCode: %v", err)
	}
	if created || m.Status != StatusPending {
		t.Errorf("member = %+v created=%v, want untouched pending row", m, created)
	}
	if n := f.rows(t, e.ID, "guest"); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestClosedEventRejectsJoins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)
	if _, err := f.events.SetClosed(ctx, user("host"), e.ID, true, ""); err != nil {
		t.Fatalf("SetClosed: %v", err)
	}

	if _, err := f.svc.RequestJoin(ctx, user("guest"), e.ID, JoinRequest{}, ""); !errors.Is(err, ErrEventClosed) {
		t.Errorf("request join err = %v, want ErrEventClosed", err)
	}
	if _, _, err := f.svc.JoinByInviteCode(ctx, user("guest"), e.InviteCode, ""); !errors.Is(err, ErrEventClosed) {
		t.Errorf("invite join err = %v, want ErrEventClosed", err)
	}
	if _, err := f.svc.RequestJoin(ctx, user("guest"), "missing", JoinRequest{}, ""); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("missing event err = %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)
	if _, err := f.svc.RequestJoin(ctx, user("guest"), e.ID, JoinRequest{}, ""); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}

	steps := []struct {
		actor   string
		status  string
		wantErr error
	}{
		{"guest", StatusApproved, event.ErrNotHost},
		{"host", StatusWithdrawn, ErrInvalidTransition},
		{"host", StatusApproved, nil},
		{"host", StatusRejected, ErrInvalidTransition},
		{"host", StatusPending, ErrInvalidTransition},
		{"host", StatusWithdrawn, nil},
		{"host", StatusApproved, ErrInvalidTransition},
	}
	for i, s := range steps {
		m, err := f.svc.UpdateStatus(ctx, user(s.actor), e.ID, "guest", s.status, "")
		if s.wantErr != nil {
			if !errors.Is(err, s.wantErr) {
				t.Fatalf("step %d (%s by %s) err = %v, want %v", i, s.status, s.actor, err, s.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("step %d (%s) err = %v", i, s.status, err)
		}
		if m.Status != s.status {
			t.Fatalf("step %d status = %s", i, m.Status)
		}
		if a := f.pub.last(); a.Type != notification.ActivityMemberStatusChanged || a.Status != s.status || a.ActorID != "host" {
			t.Errorf("step %d activity = %+v", i, a)
		}
	}

	if _, err := f.svc.UpdateStatus(ctx, user("host"), e.ID, "nobody", StatusApproved, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing member err = %v, want ErrNotFound", err)
	}
	if !f.audit.Has(auditlog.ActionMemberStatusChanged, auditlog.StatusSuccess) {
		t.Error("status change not audited")
	}
}

func TestStatusChangedUnderneathIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)

	if _, err := f.svc.RequestJoin(ctx, user("guest"), e.ID, JoinRequest{}, ""); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}

	// approve the row after the service has read it as pending but before
	// the reject is written
	var once sync.Once
	err := f.db.Callback().Update().Before("gorm:update").Register("test:concurrent_approve", func(d *gorm.DB) {
		if d.Statement.Table != "event_members" {
			return
		}
		once.Do(func() {
			d.Session(&gorm.Session{NewDB: true}).Exec(
				"UPDATE event_members SET status = ? WHERE event_id = ? AND user_id = ?",
				StatusApproved, e.ID, "guest")
		})
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, user("host"), e.ID, "guest", StatusRejected, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reject err = %v, want ErrInvalidTransition", err)
	}

	m, err := f.svc.Repo.GetMemberStatus(ctx, e.ID, "guest")
	if err != nil || m == nil {
		t.Fatalf("GetMemberStatus: %v, %v", m, err)
	}
	if m.Status != StatusApproved {
		t.Fatalf("status = %s, want approved (approved -> rejected must stay unreachable)", m.Status)
	}
	if !f.audit.Has(auditlog.ActionMemberStatusChanged, auditlog.StatusFailure) {
		t.Error("failed transition not audited")
	}
}

func TestRepositoryCountsSeatsInsideWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 2)
	repo := f.svc.Repo

	if _, err := repo.JoinEvent(ctx, e.ID, "a", "", SourceInviteLink, 2); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := repo.JoinEvent(ctx, e.ID, "p", "", SourceRequest, 2); err != nil {
		t.Fatalf("request p: %v", err)
	}
	// a seat taken outside the service, as a concurrent join would
	if _, err := repo.JoinEvent(ctx, e.ID, "b", "", SourceInviteLink, 0); err != nil {
		t.Fatalf("join b: %v", err)
	}

	if _, err := repo.JoinEvent(ctx, e.ID, "c", "", SourceInviteLink, 2); !errors.Is(err, ErrCapacityReached) {
		t.Errorf("invite join over cap err = %v, want ErrCapacityReached", err)
	}
	if n := f.rows(t, e.ID, "c"); n != 0 {
		t.Errorf("rows for c = %d, want 0", n)
	}
	if err := repo.UpdateMemberStatus(ctx, e.ID, "p", StatusPending, StatusApproved, 2); !errors.Is(err, ErrCapacityReached) {
		t.Errorf("approve over cap err = %v, want ErrCapacityReached", err)
	}
	if _, err := repo.JoinEvent(ctx, e.ID, "q", "", SourceRequest, 2); err != nil {
		t.Errorf("pending request is not capped: %v", err)
	}

	tests := []struct {
		name    string
		userID  string
		from    string
		to      string
		wantErr error
	}{
		{"stale expected status", "p", StatusApproved, StatusWithdrawn, ErrInvalidTransition},
		{"missing row", "nobody", StatusPending, StatusRejected, ErrNotFound},
		{"matching status", "p", StatusPending, StatusRejected, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.UpdateMemberStatus(ctx, e.ID, tt.userID, tt.from, tt.to, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if err := repo.UpdateMemberStatus(ctx, "no-such-event", "p", StatusPending, StatusApproved, 0); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("missing event err = %v, want ErrEventNotFound", err)
	}
}

func TestCapacityNotEnforcedByDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 2)

	for _, id := range []string{"a", "b", "c"} {
		if _, _, err := f.svc.JoinByInviteCode(ctx, user(id), e.InviteCode, ""); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	count, err := f.events.Repo.CountApproved(ctx, e.ID)
	if err != nil {
		t.Fatalf("CountApproved: %v", err)
	}
	if count != 3 {
		t.Errorf("approved = %d, want 3", count)
	}
}

func TestCapacityEnforced(t *testing.T) {
	f := newFixture(t)
	f.svc.EnforceCapacity = true
	ctx := context.Background()
	e := f.newEvent(t, "host", 2)

	for _, id := range []string{"a", "b"} {
		if _, _, err := f.svc.JoinByInviteCode(ctx, user(id), e.InviteCode, ""); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if _, _, err := f.svc.JoinByInviteCode(ctx, user("c"), e.InviteCode, ""); !errors.Is(err, ErrCapacityReached) {
		t.Errorf("third invite join err = %v, want ErrCapacityReached", err)
	}

	if _, err := f.svc.RequestJoin(ctx, user("d"), e.ID, JoinRequest{}, ""); err != nil {
		t.Fatalf("pending request should still be accepted: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, user("host"), e.ID, "d", StatusApproved, ""); !errors.Is(err, ErrCapacityReached) {
		t.Errorf("approve over capacity err = %v, want ErrCapacityReached", err)
	}
}

func TestWithdrawAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)

	if _, err := f.svc.RequestJoin(ctx, user("pending-guest"), e.ID, JoinRequest{}, ""); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if _, err := f.svc.Withdraw(ctx, user("pending-guest"), e.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending withdraw err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.Withdraw(ctx, user("stranger"), e.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger withdraw err = %v, want ErrNotFound", err)
	}

	if _, _, err := f.svc.JoinByInviteCode(ctx, user("guest"), e.InviteCode, ""); err != nil {
		t.Fatalf("JoinByInviteCode: %v", err)
	}
	m, err := f.svc.Withdraw(ctx, user("guest"), e.ID, "")
	if err != nil || m.Status != StatusWithdrawn {
		t.Fatalf("Withdraw = %+v, %v", m, err)
	}
	if a := f.pub.last(); a.ActorID != "guest" || a.UserID != "guest" {
		t.Errorf("self-withdraw activity = %+v", a)
	}

	if err := f.svc.RemoveMember(ctx, user("guest"), e.ID, "pending-guest", ""); !errors.Is(err, event.ErrNotHost) {
		t.Errorf("guest remove err = %v, want ErrNotHost", err)
	}
	if err := f.svc.RemoveMember(ctx, user("host"), e.ID, "pending-guest", ""); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	got, err := f.svc.Repo.GetMemberStatus(ctx, e.ID, "pending-guest")
	if err != nil || got != nil {
		t.Errorf("GetMemberStatus after removal = %+v, %v; want nil, nil", got, err)
	}
	if err := f.svc.RemoveMember(ctx, user("host"), e.ID, "pending-guest", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
	if !f.audit.Has(auditlog.ActionMemberRemoved, auditlog.StatusSuccess) {
		t.Error("removal not audited")
	}
}

func TestListMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.newEvent(t, "host", 10)
	if err := f.db.Create(&profile.Profile{ID: "b", FullName: "Bora"}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := []EventMember{
		{EventID: e.ID, UserID: "a", Status: StatusApproved, JoinSource: SourceInviteLink, CreatedAt: base},
		{EventID: e.ID, UserID: "b", Status: StatusPending, JoinSource: SourceRequest, CreatedAt: base.Add(time.Hour)},
		{EventID: e.ID, UserID: "c", Status: StatusApproved, JoinSource: SourceInviteLink, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		if err := f.db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}

	all, err := f.svc.ListMembers(ctx, user("host"), e.ID, "")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(all) != 3 || all[0].UserID != "c" || all[1].UserID != "b" || all[2].UserID != "a" {
		t.Fatalf("order = %+v", all)
	}
	if all[1].FullName != "Bora" || all[0].FullName != "" {
		t.Errorf("profile join: %q %q", all[1].FullName, all[0].FullName)
	}

	approved, err := f.svc.ListMembers(ctx, user("host"), e.ID, StatusApproved)
	if err != nil || len(approved) != 2 {
		t.Errorf("approved = %d, %v", len(approved), err)
	}

	if _, err := f.svc.ListMembers(ctx, user("host"), e.ID, "banned"); !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("bad filter err = %v", err)
	}
	if _, err := f.svc.ListMembers(ctx, user("a"), e.ID, ""); !errors.Is(err, event.ErrNotHost) {
		t.Errorf("member list by guest err = %v", err)
	}

	mine, err := f.svc.MyMembership(ctx, user("nobody"), e.ID)
	if err != nil || mine != nil {
		t.Errorf("MyMembership = %+v, %v; want nil, nil", mine, err)
	}
}
