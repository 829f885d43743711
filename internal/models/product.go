package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	PriceCents    int64     `gorm:"not null" json:"price_cents"`
	ImageURL      string    `gorm:"type:text" json:"image_url"`
	ImagePublicID string    `gorm:"size:255" json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Ratings       []Rating  `gorm:"foreignKey:ProductID" json:"ratings,omitempty"`
}

func (Product) TableName() string {
	return "products"
}
