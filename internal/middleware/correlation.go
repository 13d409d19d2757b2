package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/campus-forum-api/internal/utils"
)

const (
	correlationHeader    = "X-Correlation-ID"
	correlationLocalsKey = "correlation_id"
)

// CorrelationID tags every request with an identifier that follows it into logs and published events.
// A caller supplied X-Correlation-ID or X-Request-ID is reused.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(correlationHeader))
		if id == "" {
			id = strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocalsKey, id)
		c.Set(correlationHeader, id)
		c.SetUserContext(utils.WithCorrelationID(c.UserContext(), id))

		return c.Next()
	}
}

// GetCorrelationID returns the identifier assigned to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocalsKey).(string); ok {
		return id
	}
	return utils.CorrelationID(c.UserContext())
}
