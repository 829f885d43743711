package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one user's 1..5 score for a product; one row per (user, product).
type Rating struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_user_product,priority:1" json:"user_id"`
	ProductID uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_ratings_user_product,priority:2" json:"product_id"`
	Value     int         `gorm:"not null" json:"value"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	User      *RatingUser `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Rating) TableName() string {
	return "ratings"
}

// RatingUser is the public slice of a User shown next to a review.
type RatingUser struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
}

func (RatingUser) TableName() string {
	return "users"
}
