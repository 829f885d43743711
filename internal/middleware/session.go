package middleware

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionCookie = "goodie_session"

	sessionLocalsKey = "session"
)

// SetSessionCookie writes the session token as an httpOnly cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// sessionToken reads a bearer Authorization header first, then the cookie,
// in the same order SessionRequired looks them up.
func sessionToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return c.Cookies(SessionCookie)
}

func setClaims(c *fiber.Ctx, claims *auth.Claims) {
	c.Locals(sessionLocalsKey, claims)
}

// Claims returns the verified session for this request, or nil.
func Claims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(sessionLocalsKey).(*auth.Claims)
	return claims
}

// UserID returns the signed-in user's id. ok is false without a session.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	claims := Claims(c)
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
