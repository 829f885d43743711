package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/google/uuid"
)

const MaxCartQuantity = repository.MaxCartQuantity

type CartService struct {
	cart     repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(cart repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{cart: cart, products: products}
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxCartQuantity {
		return invalid("quantity", "quantity must be between 1 and %d", MaxCartQuantity)
	}
	return nil
}

// Add puts quantity of the product in the cart, adding to any existing line.
// The merged line never exceeds MaxCartQuantity.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity == 0 {
		quantity = 1
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := findProduct(ctx, s.products, productID); err != nil {
		return nil, err
	}

	item, err := s.cart.AddItem(ctx, userID, productID, quantity)
	return item, notFoundAs(err, ErrNotFound)
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	item, err := s.cart.SetQuantity(ctx, userID, productID, quantity)
	return item, notFoundAs(err, ErrNotFound)
}

func (s *CartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return notFoundAs(s.cart.RemoveItem(ctx, userID, productID), ErrNotFound)
}

func (s *CartService) Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.cart.ListItems(ctx, userID)
}
