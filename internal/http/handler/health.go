package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"sunrised/internal/alarm"
)

const healthPingTimeout = 2 * time.Second

func health(svc alarm.Service, db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := svc.Get(c.Context()); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, CodeServiceUnavailable, "settings unavailable")
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Context(), healthPingTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, CodeServiceUnavailable, "history database unavailable")
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
