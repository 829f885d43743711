package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/google/uuid"
)

// CheckoutSummary totals the cart. No order is placed.
type CheckoutSummary struct {
	Items         []models.CartItem
	ItemCount     int
	SubtotalCents int64
}

type CheckoutService struct {
	cart repository.CartRepository
}

func NewCheckoutService(cart repository.CartRepository) *CheckoutService {
	return &CheckoutService{cart: cart}
}

func (s *CheckoutService) Summary(ctx context.Context, userID uuid.UUID) (*CheckoutSummary, error) {
	items, err := s.cart.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &CheckoutSummary{Items: items}
	for _, it := range items {
		summary.ItemCount += it.Quantity
		if it.Product != nil {
			summary.SubtotalCents += it.Product.PriceCents * int64(it.Quantity)
		}
	}
	return summary, nil
}
