package handlers

import (
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type RatingHandler struct {
	ratings *services.RatingService
}

func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// Rate creates or replaces the user's rating for a product.
func (h *RatingHandler) Rate(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "rating_save")
	}
	var req dto.RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return serviceError(c, err, "rating_save")
	}

	rating, err := h.ratings.Rate(c.UserContext(), userID, services.RatingInput{
		ProductID: productID, Value: req.Value, Comment: req.Comment,
	})
	if err != nil {
		return serviceError(c, err, "rating_save")
	}
	return c.Status(fiber.StatusCreated).JSON(rating)
}
