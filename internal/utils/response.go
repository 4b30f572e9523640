package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API responses. Warning
// marks a recoverable validation stop that the user may override by
// resubmitting with the force flag; it is never combined with Success.
type APIResponse struct {
	Success bool        `json:"success"`
	Warning bool        `json:"warning,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendWarning sends a recoverable validation warning. The request was not
// acted on; the form stays open for correction or a forced resubmit.
func SendWarning(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Warning: true,
		Message: message,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}
