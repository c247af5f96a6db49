package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the standard JSON envelope for all endpoints
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// SuccessResponse sends a 200 with the given payload
func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends an error status with a message; the underlying error
// text is included as detail so callers can diagnose failures
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return c.Status(status).JSON(Response{
		Success: false,
		Error:   message,
		Detail:  detail,
	})
}

// ErrorResponseWithData sends an error status with structured detail data
// (per-item statuses from a partially failed batch, for example)
func ErrorResponseWithData(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Error:   message,
		Data:    data,
	})
}
