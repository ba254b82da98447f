package handler

import (
	"github.com/gofiber/fiber/v2"

	"sunrised/internal/http/middleware"
)

// Error codes returned in the JSON error envelope.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeInvalidHour        = "INVALID_HOUR"
	CodeInvalidMinute      = "INVALID_MINUTE"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	RequestID string    `json:"request_id"`
	Error     errorBody `json:"error"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return id
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorResponse{
		RequestID: requestIDFromCtx(c),
		Error:     errorBody{Code: code, Message: message},
	})
}

// ErrorHandler turns errors escaping a handler into the standard envelope so
// clients never see Fiber's plain-text default.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		code := CodeInternalError
		message := "internal server error"

		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
			message = fe.Message
			switch status {
			case fiber.StatusNotFound:
				code = CodeNotFound
			case fiber.StatusBadRequest:
				code = CodeBadRequest
			case fiber.StatusServiceUnavailable:
				code = CodeServiceUnavailable
			}
		}
		return writeError(c, status, code, message)
	}
}
