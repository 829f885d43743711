package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func invalidBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

// serviceError maps a service error onto its HTTP status. Anything unknown is
// logged, reported to Sentry and answered with a generic 500.
func serviceError(c *fiber.Ctx, err error, action string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUnknownProvider):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}

	reportError(c, err, action)
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

// reportError logs an unexpected failure and sends it to Sentry.
func reportError(c *fiber.Ctx, err error, action string) {
	attrs := []any{
		"action", action,
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
		"error", err,
	}
	if id, ok := middleware.UserID(c); ok {
		attrs = append(attrs, "user_id", id.String())
	}
	slog.Error("request failed", attrs...)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// sessionUser returns the signed-in user id; routes using it sit behind
// SessionRequired or the route guard.
func sessionUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, services.ErrUnauthenticated
	}
	return id, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &services.ValidationError{Field: "id", Message: "invalid id"}
	}
	return id, nil
}
