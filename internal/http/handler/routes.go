// Package handler serves the wall-mounted web page and the JSON API in front
// of the alarm service.
package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"sunrised/internal/alarm"
)

// Pinger reports whether a backing store is reachable. The history database
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts the page, the form endpoints the page posts to, the
// JSON API and the health probes onto app.
func RegisterRoutes(app *fiber.App, svc alarm.Service, events alarm.Recorder, db Pinger, statePath string) {
	app.Get("/", indexPage(svc))
	app.Post("/set_alarm", setAlarmForm(svc))
	app.Post("/disable_alarm", disableAlarmForm(svc))

	app.Get("/api/alarm", getAlarm(svc))
	app.Put("/api/alarm", putAlarm(svc))
	app.Post("/api/alarm/disable", disableAlarm(svc))
	app.Get("/api/state", getState(statePath))
	app.Get("/api/events", listEvents(events))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/health", health(svc, db))
}
