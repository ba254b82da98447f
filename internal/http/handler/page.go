package handler

import (
	"bytes"
	_ "embed"
	"errors"
	"html/template"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"sunrised/internal/alarm"
)

//go:embed templates/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type indexData struct {
	AlarmColor    template.CSS
	AlarmDisplay  string
	DefaultHour   int
	DefaultMinute int
	Enabled       bool
	LeadMinutes   int
	Hours         []int
	Minutes       []int
}

var (
	pageHours   = seq(1, 12)
	pageMinutes = seq(0, 59)
)

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func indexPage(svc alarm.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.Status(c.Context())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "load alarm settings")
		}

		data := indexData{
			AlarmColor:    template.CSS("rgba(255, 255, 255, 0.2)"),
			AlarmDisplay:  "Not Set",
			DefaultHour:   7,
			DefaultMinute: 0,
			Enabled:       report.Settings.Enabled,
			LeadMinutes:   report.LeadMinutes,
			Hours:         pageHours,
			Minutes:       pageMinutes,
		}
		if t, err := alarm.ParseTime(report.Settings.Time); err == nil {
			data.AlarmDisplay = t.String()
			data.DefaultHour = t.Hour
			data.DefaultMinute = t.Minute
			if report.Settings.Enabled {
				data.AlarmColor = template.CSS("#007AFF")
			}
		}

		var buf bytes.Buffer
		if err := indexTmpl.Execute(&buf, data); err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "render page")
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}

func setAlarmForm(svc alarm.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hour, err := strconv.Atoi(c.FormValue("hour"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, CodeInvalidHour, "hour must be a number")
		}
		minute, err := strconv.Atoi(c.FormValue("minute"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, CodeInvalidMinute, "minute must be a number")
		}

		if _, err := svc.Set(c.Context(), hour, minute, alarm.SourceWeb); err != nil {
			return setErrorResponse(c, err)
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

func disableAlarmForm(svc alarm.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := svc.Disable(c.Context(), alarm.SourceWeb); err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "disable alarm")
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

func setErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, alarm.ErrInvalidHour):
		return writeError(c, fiber.StatusBadRequest, CodeInvalidHour, err.Error())
	case errors.Is(err, alarm.ErrInvalidMinute):
		return writeError(c, fiber.StatusBadRequest, CodeInvalidMinute, err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, CodeInternalError, "save alarm settings")
	}
}
