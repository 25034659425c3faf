package profile

import (
	"time"
)

// ============================
// 🔷 Profile Model (id = identity provider user id)
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;not null;default:''" json:"email,omitempty"`
	FullName  string    `gorm:"size:100;not null;default:''" json:"full_name"`
	Username  *string   `gorm:"size:30;uniqueIndex" json:"username"`
	Bio       string    `gorm:"type:text;not null;default:''" json:"bio"`
	Website   string    `gorm:"size:255;not null;default:''" json:"website"`
	AvatarURL string    `gorm:"type:text;not null;default:''" json:"avatar_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Username  *string `json:"username"`
	Bio       string  `json:"bio"`
	Website   string  `json:"website"`
	AvatarURL string  `json:"avatar_url"`
}

func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		ID:        p.ID,
		FullName:  p.FullName,
		Username:  p.Username,
		Bio:       p.Bio,
		Website:   p.Website,
		AvatarURL: p.AvatarURL,
	}
}

// ============================
// 🟠 Update Profile Request (only supplied fields change)
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	Username  *string `json:"username"` // "" clears the username
	Bio       *string `json:"bio"`
	Website   *string `json:"website"`
	AvatarURL *string `json:"avatar_url"`
}
