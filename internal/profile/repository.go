package profile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// ===========================
// 🆕 Insert profile unless it already exists
func (r *Repository) CreateIfMissing(ctx context.Context, p *Profile) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p).Error
}

// ===========================
// 🔍 Get Profile By ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &p, nil
}

// ===========================
// 🛠 Update selected columns
func (r *Repository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(updates)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	if res.Error != nil {
		return fmt.Errorf("update profile %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
