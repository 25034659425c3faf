package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/auth"
	"github.com/gather-app/gather-backend/internal/testutil"
	"github.com/gather-app/gather-backend/internal/validation"
)

func newTestService(t *testing.T) (*Service, *testutil.AuditRecorder) {
	t.Helper()
	db := testutil.NewDB(t, &Profile{})
	audit := &testutil.AuditRecorder{}
	return NewService(NewRepository(db), audit), audit
}

func strPtr(s string) *string { return &s }

func TestEnsureProfileKeepsExistingRow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.EnsureProfile(ctx, auth.Identity{UserID: "u-1", Email: "a@example.com", FullName: "First Name"}); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if _, err := svc.UpdateMyProfile(ctx, "u-1", UpdateProfileRequest{FullName: strPtr("Edited")}, "127.0.0.1"); err != nil {
		t.Fatalf("UpdateMyProfile: %v", err)
	}
	if err := svc.EnsureProfile(ctx, auth.Identity{UserID: "u-1", FullName: "Provider Name"}); err != nil {
		t.Fatalf("second EnsureProfile: %v", err)
	}

	p, err := svc.GetMyProfile(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetMyProfile: %v", err)
	}
	if p.FullName != "Edited" {
		t.Errorf("FullName = %q, want Edited", p.FullName)
	}
	if p.Email != "a@example.com" {
		t.Errorf("Email = %q", p.Email)
	}
}

func TestUpdateMyProfileUsernameUniqueness(t *testing.T) {
	svc, audit := newTestService(t)
	ctx := context.Background()
	for _, id := range []string{"u-1", "u-2"} {
		if err := svc.EnsureProfile(ctx, auth.Identity{UserID: id}); err != nil {
			t.Fatalf("EnsureProfile %s: %v", id, err)
		}
	}

	p, err := svc.UpdateMyProfile(ctx, "u-1", UpdateProfileRequest{Username: strPtr("Gatherer")}, "")
	if err != nil {
		t.Fatalf("UpdateMyProfile u-1: %v", err)
	}
	if p.Username == nil || *p.Username != "gatherer" {
		t.Fatalf("Username = %v, want gatherer", p.Username)
	}

	_, err = svc.UpdateMyProfile(ctx, "u-2", UpdateProfileRequest{Username: strPtr("gatherer")}, "")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username err = %v, want ErrUsernameTaken", err)
	}
	if !audit.Has(auditlog.ActionProfileUpdated, auditlog.StatusFailure) {
		t.Error("failed update was not audited")
	}

	p, err = svc.UpdateMyProfile(ctx, "u-1", UpdateProfileRequest{Username: strPtr("")}, "")
	if err != nil {
		t.Fatalf("clear username: %v", err)
	}
	if p.Username != nil {
		t.Errorf("Username = %q, want nil after clearing", *p.Username)
	}
}

func TestUpdateMyProfileValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.EnsureProfile(ctx, auth.Identity{UserID: "u-1"}); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}

	tests := []struct {
		name string
		req  UpdateProfileRequest
	}{
		{"bad username", UpdateProfileRequest{Username: strPtr("no spaces allowed")}},
		{"bad website", UpdateProfileRequest{Website: strPtr("example.com")}},
		{"bad avatar", UpdateProfileRequest{AvatarURL: strPtr("javascript:alert(1)")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpdateMyProfile(ctx, "u-1", tt.req, ""); !errors.Is(err, validation.ErrInvalid) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestGetProfileHidesEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.EnsureProfile(ctx, auth.Identity{UserID: "u-1", Email: "secret@example.com", FullName: "Kim"}); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}

	pub, err := svc.GetProfile(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if pub.FullName != "Kim" {
		t.Errorf("FullName = %q", pub.FullName)
	}

	if _, err := svc.GetProfile(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing profile err = %v, want ErrNotFound", err)
	}
}

func TestUpdateMyProfileWithoutAuditService(t *testing.T) {
	db := testutil.NewDB(t, &Profile{})
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	if err := svc.EnsureProfile(ctx, auth.Identity{UserID: "u-1"}); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	p, err := svc.UpdateMyProfile(ctx, "u-1", UpdateProfileRequest{Bio: strPtr("Runs on weekends")}, "")
	if err != nil {
		t.Fatalf("UpdateMyProfile: %v", err)
	}
	if p.Bio != "Runs on weekends" {
		t.Errorf("Bio = %q", p.Bio)
	}

	var vErr *validation.Error
	if _, err := svc.UpdateMyProfile(ctx, "u-1", UpdateProfileRequest{Website: strPtr("not a url")}, ""); !errors.As(err, &vErr) {
		t.Errorf("bad website err = %v, want validation error", err)
	}
}
