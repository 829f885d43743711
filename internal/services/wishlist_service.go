package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/google/uuid"
)

type WishlistService struct {
	wishlist repository.WishlistRepository
	products repository.ProductRepository
}

func NewWishlistService(wishlist repository.WishlistRepository, products repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlist: wishlist, products: products}
}

// Add is idempotent; adding a product twice keeps a single entry.
func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	if _, err := findProduct(ctx, s.products, productID); err != nil {
		return nil, err
	}
	item, _, err := s.wishlist.Add(ctx, userID, productID)
	return item, notFoundAs(err, ErrNotFound)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return notFoundAs(s.wishlist.Remove(ctx, userID, productID), ErrNotFound)
}

func (s *WishlistService) Items(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	return s.wishlist.ListItems(ctx, userID)
}
