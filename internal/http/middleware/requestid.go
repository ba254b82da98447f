// Package middleware holds the Fiber middleware shared by the web interface.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates request IDs across hops.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the ID lives in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID makes sure every request carries an ID: an incoming X-Request-ID
// is reused, otherwise a fresh UUID is minted. The ID is stored in locals for
// handlers and echoed on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
