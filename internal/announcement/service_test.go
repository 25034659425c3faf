package announcement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/internal/member"
	"github.com/gather-app/gather-backend/internal/notification"
	"github.com/gather-app/gather-backend/internal/testutil"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	activities []notification.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, a notification.Activity) error {
	p.activities = append(p.activities, a)
	return nil
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	audit   *testutil.AuditRecorder
	pub     *recordingPublisher
	eventID string
}

func user(id string) middleware.AccessContext {
	return middleware.AccessContext{UserID: id}
}

// newFixture creates one event hosted by "host" with an approved member
// "member" and a pending member "pending".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t, &event.Event{}, &member.EventMember{}, &Announcement{})
	audit := &testutil.AuditRecorder{}
	pub := &recordingPublisher{}
	events := event.NewService(event.NewRepository(db), audit, nil, "")

	e, err := events.CreateEvent(context.Background(), user("host"), &event.CreateEventRequest{
		Title:      "Book club",
		Category:   validation.CategoryMeeting,
		EventDate:  time.Now().Add(72 * time.Hour),
		Location:   "Library 3F",
		MaxMembers: 8,
	}, "")
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	for id, status := range map[string]string{"member": member.StatusApproved, "pending": member.StatusPending} {
		m := member.EventMember{EventID: e.ID, UserID: id, Status: status, JoinSource: member.SourceRequest}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}

	return &fixture{
		db:      db,
		svc:     NewService(NewRepository(db), events, audit, pub),
		audit:   audit,
		pub:     pub,
		eventID: e.ID,
	}
}

func TestListOrderingPinnedFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	seed := []Announcement{
		{ID: "old-plain", Title: "Old", IsPinned: false, CreatedAt: base},
		{ID: "old-pinned", Title: "Rules", IsPinned: true, CreatedAt: base.Add(time.Minute)},
		{ID: "new-plain", Title: "New", IsPinned: false, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "new-pinned", Title: "Venue", IsPinned: true, CreatedAt: base.Add(time.Hour)},
	}
	for i := range seed {
		seed[i].EventID = f.eventID
		seed[i].AuthorID = "host"
		seed[i].Content = "details follow"
		if err := f.db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, err := f.svc.ListAnnouncements(context.Background(), user("member"), f.eventID)
	if err != nil {
		t.Fatalf("ListAnnouncements: %v", err)
	}
	want := []string{"new-pinned", "old-pinned", "new-plain", "old-plain"}
	if len(items) != len(want) {
		t.Fatalf("got %d items", len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, items[i].ID, id)
		}
	}
}

func TestReadAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateAnnouncement(ctx, user("host"), f.eventID, CreateAnnouncementRequest{Title: "Hello", Content: "Welcome all"}, "")
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}

	for _, id := range []string{"host", "member"} {
		if _, err := f.svc.GetAnnouncement(ctx, user(id), a.ID); err != nil {
			t.Errorf("%s read err = %v", id, err)
		}
	}
	for _, id := range []string{"pending", "stranger"} {
		if _, err := f.svc.ListAnnouncements(ctx, user(id), f.eventID); !errors.Is(err, event.ErrForbidden) {
			t.Errorf("%s list err = %v, want ErrForbidden", id, err)
		}
	}
	if _, err := f.svc.GetAnnouncement(ctx, user("host"), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestCreateAnnouncement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateAnnouncement(ctx, user("member"), f.eventID, CreateAnnouncementRequest{Title: "Hi all", Content: "Let's meet"}, ""); !errors.Is(err, event.ErrNotHost) {
		t.Fatalf("member create err = %v, want ErrNotHost", err)
	}

	invalid := []CreateAnnouncementRequest{
		{Title: "x", Content: "long enough"},
		{Title: "Valid title", Content: "four"},
	}
	for _, req := range invalid {
		if _, err := f.svc.CreateAnnouncement(ctx, user("host"), f.eventID, req, ""); !errors.Is(err, validation.ErrInvalid) {
			t.Errorf("create %+v err = %v, want validation error", req, err)
		}
	}

	a, err := f.svc.CreateAnnouncement(ctx, user("host"), f.eventID, CreateAnnouncementRequest{Title: " Venue change ", Content: "We moved to room 2"}, "")
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	if a.Title != "Venue change" || a.IsPinned || a.AuthorID != "host" {
		t.Errorf("announcement = %+v", a)
	}
	if len(f.pub.activities) != 1 || f.pub.activities[0].Type != notification.ActivityAnnouncementCreated || f.pub.activities[0].AnnouncementID != a.ID {
		t.Errorf("activities = %+v", f.pub.activities)
	}
	if !f.audit.Has(auditlog.ActionAnnouncementCreated, auditlog.StatusSuccess) {
		t.Error("creation not audited")
	}
}

func TestUpdateAnnouncementPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateAnnouncement(ctx, user("host"), f.eventID, CreateAnnouncementRequest{Title: "Agenda", Content: "Chapter one and two"}, "")
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}

	pinned := true
	if _, err := f.svc.UpdateAnnouncement(ctx, user("member"), a.ID, UpdateAnnouncementRequest{IsPinned: &pinned}, ""); !errors.Is(err, event.ErrNotHost) {
		t.Fatalf("member update err = %v, want ErrNotHost", err)
	}

	time.Sleep(2 * time.Millisecond)
	got, err := f.svc.UpdateAnnouncement(ctx, user("host"), a.ID, UpdateAnnouncementRequest{IsPinned: &pinned}, "")
	if err != nil {
		t.Fatalf("UpdateAnnouncement: %v", err)
	}
	if !got.IsPinned || got.Title != "Agenda" || got.Content != "Chapter one and two" {
		t.Errorf("updated = %+v", got)
	}
	if !got.UpdatedAt.After(a.UpdatedAt) {
		t.Errorf("updated_at not bumped: %v -> %v", a.UpdatedAt, got.UpdatedAt)
	}

	short := "tiny"
	if _, err := f.svc.UpdateAnnouncement(ctx, user("host"), a.ID, UpdateAnnouncementRequest{Content: &short}, ""); !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("short content err = %v", err)
	}
}

func TestDeleteAnnouncementRemovesFromListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateAnnouncement(ctx, user("host"), f.eventID, CreateAnnouncementRequest{Title: "Cancelled", Content: "No meeting this week"}, "")
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}

	if err := f.svc.DeleteAnnouncement(ctx, user("member"), a.ID, ""); !errors.Is(err, event.ErrNotHost) {
		t.Fatalf("member delete err = %v", err)
	}
	if err := f.svc.DeleteAnnouncement(ctx, user("host"), a.ID, ""); err != nil {
		t.Fatalf("DeleteAnnouncement: %v", err)
	}

	items, err := f.svc.ListAnnouncements(ctx, user("host"), f.eventID)
	if err != nil {
		t.Fatalf("ListAnnouncements: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("listing still has %d items", len(items))
	}
	if err := f.svc.DeleteAnnouncement(ctx, user("host"), a.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if !f.audit.Has(auditlog.ActionAnnouncementDeleted, auditlog.StatusSuccess) {
		t.Error("deletion not audited")
	}
}
