package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *models.Rating) (*models.Rating, error) {
	row := *rating
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Omit("User").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "comment", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, translate(err, "failed to save rating for product %s", rating.ProductID)
	}

	var stored models.Rating
	err = r.db.WithContext(ctx).Preload("User", selectRatingUser).
		Where("user_id = ? AND product_id = ?", rating.UserID, rating.ProductID).
		First(&stored).Error
	if err != nil {
		return nil, translate(err, "failed to read rating")
	}
	return &stored, nil
}

func (r *ratingRepository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).Preload("User", selectRatingUser).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, translate(err, "failed to list ratings for product %s", productID)
	}
	return ratings, nil
}

func (r *ratingRepository) Summary(ctx context.Context, productID uuid.UUID) (RatingSummary, error) {
	var summary RatingSummary
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Select("COALESCE(AVG(value), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&summary).Error
	return summary, translate(err, "failed to summarize ratings for product %s", productID)
}

func (r *ratingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Rating{}).Count(&n).Error
	return n, translate(err, "failed to count ratings")
}

func selectRatingUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "avatar_url")
}
