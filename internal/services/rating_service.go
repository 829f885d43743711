package services

import (
	"context"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/security"
	"github.com/google/uuid"
)

const maxCommentLength = 1000

type RatingInput struct {
	ProductID uuid.UUID
	Value     int
	Comment   string
}

type RatingService struct {
	ratings   repository.RatingRepository
	products  repository.ProductRepository
	sanitizer *security.Sanitizer
}

func NewRatingService(ratings repository.RatingRepository, products repository.ProductRepository, sanitizer *security.Sanitizer) *RatingService {
	return &RatingService{ratings: ratings, products: products, sanitizer: sanitizer}
}

// Rate records the user's rating for a product, replacing an earlier one.
func (s *RatingService) Rate(ctx context.Context, userID uuid.UUID, in RatingInput) (*models.Rating, error) {
	if in.Value < 1 || in.Value > 5 {
		return nil, invalid("value", "rating must be between 1 and 5")
	}
	comment := s.sanitizer.PlainText(in.Comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, invalid("comment", "comment must be at most %d characters", maxCommentLength)
	}
	if _, err := findProduct(ctx, s.products, in.ProductID); err != nil {
		return nil, err
	}

	rating, err := s.ratings.Upsert(ctx, &models.Rating{
		UserID:    userID,
		ProductID: in.ProductID,
		Value:     in.Value,
		Comment:   comment,
	})
	return rating, notFoundAs(err, ErrNotFound)
}
