package repository

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Normalize clamps paging to sane bounds.
func (q ProductQuery) Normalize() ProductQuery {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (r *productRepository) List(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	q = q.Normalize()

	tx := r.db.WithContext(ctx).Order("created_at DESC").Limit(q.Limit).Offset(q.Offset)
	if q.Search != "" {
		tx = tx.Where("name ILIKE ?", "%"+escapeLike(q.Search)+"%")
	}

	var products []models.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, translate(err, "failed to list products")
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find product %s", id)
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Omit("Ratings").Create(product).Error, "failed to create product")
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).Model(product).
		Select("name", "description", "price_cents", "image_url", "image_public_id", "updated_at").
		Updates(product)
	if result.Error != nil {
		return translate(result.Error, "failed to update product %s", product.ID)
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "failed to update product %s", product.ID)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, "failed to delete product %s", id)
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "failed to delete product %s", id)
	}
	return nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, translate(err, "failed to count products")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
