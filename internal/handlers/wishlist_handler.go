package handlers

import (
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WishlistHandler struct {
	wishlist *services.WishlistService
}

func NewWishlistHandler(wishlist *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

func (h *WishlistHandler) Add(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "wishlist_add")
	}
	var req dto.WishlistAddRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return serviceError(c, err, "wishlist_add")
	}

	item, err := h.wishlist.Add(c.UserContext(), userID, productID)
	if err != nil {
		return serviceError(c, err, "wishlist_add")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *WishlistHandler) Items(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "wishlist_list")
	}
	items, err := h.wishlist.Items(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "wishlist_list")
	}
	return c.JSON(dto.WishlistResponse{Items: items})
}

func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "wishlist_remove")
	}
	productID, err := parseID(c.Params("productId"))
	if err != nil {
		return serviceError(c, err, "wishlist_remove")
	}

	if err := h.wishlist.Remove(c.UserContext(), userID, productID); err != nil {
		return serviceError(c, err, "wishlist_remove")
	}
	return c.JSON(dto.MessageResponse{Message: "Item removed from wishlist"})
}
