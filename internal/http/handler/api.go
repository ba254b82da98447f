package handler

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"

	"sunrised/internal/alarm"
	"sunrised/internal/state"
)

func getAlarm(svc alarm.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.Status(c.Context())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "load alarm settings")
		}
		return c.JSON(report)
	}
}

type putAlarmRequest struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func putAlarm(svc alarm.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req putAlarmRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
		}

		settings, err := svc.Set(c.Context(), req.Hour, req.Minute, alarm.SourceWeb)
		if err != nil {
			return setErrorResponse(c, err)
		}
		return c.JSON(settings)
	}
}

func disableAlarm(svc alarm.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		settings, err := svc.Disable(c.Context(), alarm.SourceWeb)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "disable alarm")
		}
		return c.JSON(settings)
	}
}

func getState(path string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := state.Read(path)
		if errors.Is(err, os.ErrNotExist) {
			return writeError(c, fiber.StatusNotFound, CodeNotFound, "state not yet published")
		}
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "read state file")
		}
		return c.JSON(snap)
	}
}

func listEvents(events alarm.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// No history database means no events, not an error.
		if events == nil {
			return c.JSON([]alarm.Event{})
		}
		limit := c.QueryInt("limit")
		evts, err := events.Recent(c.Context(), limit)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "load history")
		}
		if evts == nil {
			evts = []alarm.Event{}
		}
		return c.JSON(evts)
	}
}
