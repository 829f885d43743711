package middleware

import (
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired re-checks the admin role on handlers already behind the route
// guard, so a routing mistake cannot expose them.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return unauthorized(c)
		}
		if claims.Role != auth.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
