package profile

import (
	"context"
	"errors"
	"time"

	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/auth"
	"github.com/gather-app/gather-backend/internal/validation"
)

// Service wraps self-service profile logic
type Service struct {
	Repo     *Repository
	AuditSvc auditlog.Service
}

func NewService(r *Repository, auditSvc auditlog.Service) *Service {
	return &Service{Repo: r, AuditSvc: auditSvc}
}

// EnsureProfile creates the caller's row on first authentication. Existing
// rows are left untouched so self-service edits are never overwritten.
func (s *Service) EnsureProfile(ctx context.Context, id auth.Identity) error {
	if id.UserID == "" {
		return errors.New("identity has no user id")
	}
	fullName := validation.Text(id.FullName)
	if validation.Length(fullName) > validation.FullNameMax {
		fullName = string([]rune(fullName)[:validation.FullNameMax])
	}
	return s.Repo.CreateIfMissing(ctx, &Profile{
		ID:        id.UserID,
		Email:     id.Email,
		FullName:  fullName,
		AvatarURL: id.AvatarURL,
	})
}

// GetProfile returns another user's public view.
func (s *Service) GetProfile(ctx context.Context, id string) (*PublicProfile, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := p.Public()
	return &pub, nil
}

func (s *Service) GetMyProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.Repo.GetByID(ctx, userID)
}

// ===========================
// 🛠 Update own profile
func (s *Service) UpdateMyProfile(ctx context.Context, userID string, req UpdateProfileRequest, ip string) (*Profile, error) {
	updates, err := profileUpdates(req)
	if err != nil {
		s.logFailure(ctx, userID, err, ip)
		return nil, err
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.Repo.Update(ctx, userID, updates); err != nil {
			s.logFailure(ctx, userID, err, ip)
			return nil, err
		}
	}

	p, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(updates))
	for k := range updates {
		if k != "updated_at" {
			changed = append(changed, k)
		}
	}
	s.audit(ctx, userID, map[string]interface{}{"fields": changed}, ip, auditlog.StatusSuccess)

	return p, nil
}

func (s *Service) logFailure(ctx context.Context, userID string, err error, ip string) {
	s.audit(ctx, userID, map[string]interface{}{"error": err.Error()}, ip, auditlog.StatusFailure)
}

// audit records a profile action; profile rows carry no event id.
func (s *Service) audit(ctx context.Context, userID string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &userID, nil, auditlog.ActionProfileUpdated, details, ip, status)
}

func profileUpdates(req UpdateProfileRequest) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if req.FullName != nil {
		v, err := validation.Bounded("full_name", *req.FullName, 0, validation.FullNameMax)
		if err != nil {
			return nil, err
		}
		updates["full_name"] = v
	}
	if req.Username != nil {
		if validation.Text(*req.Username) == "" {
			updates["username"] = nil
		} else {
			v, err := validation.Username(*req.Username)
			if err != nil {
				return nil, err
			}
			updates["username"] = v
		}
	}
	if req.Bio != nil {
		v, err := validation.Bounded("bio", *req.Bio, 0, validation.BioMax)
		if err != nil {
			return nil, err
		}
		updates["bio"] = v
	}
	if req.Website != nil {
		v, err := validation.Website(*req.Website)
		if err != nil {
			return nil, err
		}
		updates["website"] = v
	}
	if req.AvatarURL != nil {
		v, err := validation.URL("avatar_url", *req.AvatarURL)
		if err != nil {
			return nil, err
		}
		updates["avatar_url"] = v
	}
	return updates, nil
}
