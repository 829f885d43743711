package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	item := models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}

	err := r.db.WithContext(ctx).Omit("Product").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "quantity"}, Value: gorm.Expr("LEAST(cart_items.quantity + EXCLUDED.quantity, ?)", MaxCartQuantity)},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("EXCLUDED.updated_at")},
		},
	}).Create(&item).Error
	if err != nil {
		return nil, translate(err, "failed to add product %s to cart", productID)
	}
	return r.find(ctx, userID, productID)
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	result := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, translate(result.Error, "failed to update cart item")
	}
	if result.RowsAffected == 0 {
		return nil, translate(ErrNotFound, "failed to update cart item")
	}
	return r.find(ctx, userID, productID)
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return translate(result.Error, "failed to remove cart item")
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "failed to remove cart item")
	}
	return nil
}

func (r *cartRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, translate(err, "failed to list cart")
	}
	return items, nil
}

func (r *cartRepository) find(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, translate(err, "failed to read cart item")
	}
	return &item, nil
}
