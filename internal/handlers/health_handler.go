package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	pingDB    PingFunc
	pingRedis PingFunc
}

// NewHealthHandler reports on db and, when configured, redis. rdb may be nil.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	var pingRedis PingFunc
	if rdb != nil {
		pingRedis = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return NewHealthChecker(func(ctx context.Context) error { return database.Ping(ctx, db) }, pingRedis)
}

// NewHealthChecker builds the handler from plain probes. pingRedis may be nil.
func NewHealthChecker(pingDB, pingRedis PingFunc) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, pingRedis: pingRedis}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Redis:     "disabled",
	}
	status := fiber.StatusOK

	if err := h.pingDB(ctx); err != nil {
		resp.Status, resp.DB = "degraded", "unhealthy: "+err.Error()
		status = fiber.StatusServiceUnavailable
	}
	if h.pingRedis != nil {
		resp.Redis = "ok"
		if err := h.pingRedis(ctx); err != nil {
			// The reset throttle fails open, so redis alone does not fail the check.
			resp.Redis = "unhealthy: " + err.Error()
		}
	}
	return c.Status(status).JSON(resp)
}

// Landing answers GET /, echoing an error code such as access-denied from the
// route guard redirect.
func (h *HealthHandler) Landing(c *fiber.Ctx) error {
	return c.JSON(dto.LandingResponse{Status: "ok", Error: c.Query("error")})
}
