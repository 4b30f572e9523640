package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// correlationLocal is the fiber locals key the request's correlation
// identifier is stored under. The request logger format references it.
const correlationLocal = "correlation_id"

// CorrelationID middleware ensures every request carries a correlation
// identifier so a submission can be traced through the logs.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		incoming := strings.TrimSpace(c.Get("X-Correlation-ID"))
		if incoming == "" {
			incoming = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if incoming == "" {
			incoming = uuid.NewString()
		}

		c.Locals(correlationLocal, incoming)
		c.Set("X-Correlation-ID", incoming)

		return c.Next()
	}
}

// GetCorrelationID returns the correlation identifier bound to the active
// request, or "" when none was assigned.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if value := c.Locals(correlationLocal); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
