package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus counts finished requests by method, route pattern and status.
// Scrapes of /metrics itself are not counted.
func Prometheus(reg prometheus.Registerer) fiber.Handler {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests processed.",
	}, []string{"method", "path", "status"})
	reg.MustRegister(requests)

	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// Route().Path yields the registered pattern, keeping label
		// cardinality bounded no matter what clients request.
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		requests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		return err
	}
}
