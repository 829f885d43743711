package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, bool, error) {
	item := models.WishlistItem{ID: uuid.New(), UserID: userID, ProductID: productID}

	result := r.db.WithContext(ctx).Omit("Product").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(&item)
	if result.Error != nil {
		return nil, false, translate(result.Error, "failed to add product %s to wishlist", productID)
	}

	var stored models.WishlistItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&stored).Error
	if err != nil {
		return nil, false, translate(err, "failed to read wishlist item")
	}
	return &stored, result.RowsAffected == 1, nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return translate(result.Error, "failed to remove wishlist item")
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "failed to remove wishlist item")
	}
	return nil
}

func (r *wishlistRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, translate(err, "failed to list wishlist")
	}
	return items, nil
}
