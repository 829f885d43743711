package models

import (
	"time"

	"github.com/google/uuid"
)

type WishlistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_items_user_product,priority:1" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_items_user_product,priority:2" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
