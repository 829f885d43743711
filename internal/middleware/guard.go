package middleware

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/gofiber/fiber/v2"
)

// RouteGuard enforces the guard rules on every request. The token is decoded
// per request; a token that fails to decode counts as no session.
func RouteGuard(guard *auth.Guard, issuer *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, protected := guard.Rule(c.Path()); !protected {
			return c.Next()
		}

		var claims *auth.Claims
		if token := sessionToken(c); token != "" {
			decoded, err := issuer.Decode(token)
			if err == nil {
				claims = decoded
			}
		}

		decision := guard.Decide(c.Path(), claims)
		if !decision.Allow {
			slog.Info("route guard denied request",
				"path", c.Path(), "request_id", requestID(c), "signed_in", claims != nil)
			return c.Redirect(decision.Redirect, fiber.StatusFound)
		}
		setClaims(c, claims)
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
