package models

import (
	"time"

	"github.com/google/uuid"
)

// LinkedIdentity ties a User to one (provider, provider account id) pair.
type LinkedIdentity struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider          string     `gorm:"size:50;not null;uniqueIndex:idx_linked_identities_provider_account,priority:1" json:"provider"`
	ProviderAccountID string     `gorm:"size:255;not null;uniqueIndex:idx_linked_identities_provider_account,priority:2" json:"provider_account_id"`
	AccessToken       string     `gorm:"type:text" json:"-"`
	RefreshToken      string     `gorm:"type:text" json:"-"`
	IDToken           string     `gorm:"type:text" json:"-"`
	TokenType         string     `gorm:"size:50" json:"-"`
	Scope             string     `gorm:"type:text" json:"-"`
	ExpiresAt         *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	User              User       `gorm:"foreignKey:UserID" json:"-"`
}

func (LinkedIdentity) TableName() string {
	return "linked_identities"
}
