package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// RequirePermission ensures the loaded actor holds at least one of the named permissions.
func RequirePermission(permissions ...string) fiber.Handler {
	allowed := make([]string, 0, len(permissions))
	for _, permission := range permissions {
		normalized := strings.ToLower(strings.TrimSpace(permission))
		if normalized != "" {
			allowed = append(allowed, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		if !actor.Authenticated() {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		for _, permission := range allowed {
			if actor.Has(permission) {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}
