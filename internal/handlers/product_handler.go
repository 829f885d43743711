package handlers

import (
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	catalog *services.CatalogService
}

func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List returns products newest first. Query: q, limit, offset.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := repository.ProductQuery{
		Search: c.Query("q"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}.Normalize()

	products, err := h.catalog.List(c.UserContext(), q)
	if err != nil {
		return serviceError(c, err, "product_list")
	}
	return c.JSON(dto.ProductListResponse{Products: products, Limit: q.Limit, Offset: q.Offset})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return serviceError(c, err, "product_detail")
	}

	detail, err := h.catalog.Detail(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "product_detail")
	}
	return c.JSON(dto.ProductDetailResponse{
		Product:       detail.Product,
		Ratings:       detail.Ratings,
		AverageRating: detail.AverageRating,
		RatingCount:   detail.RatingCount,
	})
}
