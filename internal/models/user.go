package models

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/google/uuid"
)

// User is the storefront account. PasswordHash is nil for federation-only accounts.
type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email               string     `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash        *string    `gorm:"column:password_hash" json:"-"`
	Name                string     `gorm:"size:255" json:"name"`
	AvatarURL           string     `gorm:"type:text" json:"avatar_url"`
	Role                auth.Role  `gorm:"size:20;not null;default:'standard'" json:"role"`
	EmailVerifiedAt     *time.Time `json:"email_verified_at,omitempty"`
	ResetToken          *string    `gorm:"size:64;uniqueIndex" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Identity is the payload handed to the token issuer and returned to clients.
func (u *User) Identity() auth.Identity {
	return auth.Identity{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.AvatarURL,
		Role:   u.Role,
	}
}
