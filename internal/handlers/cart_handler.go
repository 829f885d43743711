package handlers

import (
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// CartHandler serves the signed-in user's cart and the checkout summary.
type CartHandler struct {
	cart     *services.CartService
	checkout *services.CheckoutService
}

func NewCartHandler(cart *services.CartService, checkout *services.CheckoutService) *CartHandler {
	return &CartHandler{cart: cart, checkout: checkout}
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "cart_add")
	}
	var req dto.CartAddRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return serviceError(c, err, "cart_add")
	}

	item, err := h.cart.Add(c.UserContext(), userID, productID, req.Quantity)
	if err != nil {
		return serviceError(c, err, "cart_add")
	}
	return c.JSON(item)
}

func (h *CartHandler) Items(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "cart_list")
	}
	items, err := h.cart.Items(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "cart_list")
	}
	return c.JSON(dto.CartResponse{Items: items})
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "cart_update")
	}
	productID, err := parseID(c.Params("productId"))
	if err != nil {
		return serviceError(c, err, "cart_update")
	}
	var req dto.CartUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	item, err := h.cart.SetQuantity(c.UserContext(), userID, productID, req.Quantity)
	if err != nil {
		return serviceError(c, err, "cart_update")
	}
	return c.JSON(item)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "cart_remove")
	}
	productID, err := parseID(c.Params("productId"))
	if err != nil {
		return serviceError(c, err, "cart_remove")
	}

	if err := h.cart.Remove(c.UserContext(), userID, productID); err != nil {
		return serviceError(c, err, "cart_remove")
	}
	return c.JSON(dto.MessageResponse{Message: "Item removed from cart"})
}

func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	userID, err := sessionUser(c)
	if err != nil {
		return serviceError(c, err, "checkout")
	}
	summary, err := h.checkout.Summary(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "checkout")
	}
	return c.JSON(dto.CheckoutResponse{
		Items:         summary.Items,
		ItemCount:     summary.ItemCount,
		SubtotalCents: summary.SubtotalCents,
	})
}
