package middleware

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionRequired verifies the session token from the goodie_session cookie
// or a bearer header. A token older than the update age is reissued and the
// cookie rewritten, so active sessions slide forward.
func SessionRequired(issuer *auth.TokenIssuer, secureCookie bool) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: issuer.SigningKey()},
		Claims:      &auth.Claims{},
		TokenLookup: "header:Authorization,cookie:" + SessionCookie,
		AuthScheme:  "Bearer",
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.ExpiresAt == nil || auth.ValidateClaims(claims) != nil {
				return unauthorized(c)
			}
			setClaims(c, claims)

			fresh, refreshed, updated, err := issuer.Refresh(claims)
			if err != nil {
				slog.Warn("session refresh failed", "subject", claims.Subject, "error", err)
			} else if updated {
				SetSessionCookie(c, fresh, refreshed.ExpiresAt.Time, secureCookie)
				setClaims(c, refreshed)
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
