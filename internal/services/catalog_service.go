package services

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/google/uuid"
)

// ProductDetail is a product page: the product plus its reviews.
type ProductDetail struct {
	Product       *models.Product
	Ratings       []models.Rating
	AverageRating float64
	RatingCount   int64
}

type CatalogService struct {
	products repository.ProductRepository
	ratings  repository.RatingRepository
}

func NewCatalogService(products repository.ProductRepository, ratings repository.RatingRepository) *CatalogService {
	return &CatalogService{products: products, ratings: ratings}
}

func (s *CatalogService) List(ctx context.Context, q repository.ProductQuery) ([]models.Product, error) {
	return s.products.List(ctx, q)
}

func (s *CatalogService) Detail(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := findProduct(ctx, s.products, id)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratings.ListForProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.ratings.Summary(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProductDetail{
		Product:       product,
		Ratings:       ratings,
		AverageRating: summary.Average,
		RatingCount:   summary.Count,
	}, nil
}

// findProduct maps a missing product onto ErrNotFound.
func findProduct(ctx context.Context, products repository.ProductRepository, id uuid.UUID) (*models.Product, error) {
	product, err := products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return product, err
}

func notFoundAs(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
