package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/service"
	"github.com/noah-isme/campus-forum-api/internal/utils"
)

const actorLocalsKey = "actor"

// ActorLoader resolves a token subject into an actor.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID uint) (service.Actor, error)
}

// WithActor loads the current account after JWTProtected. Unknown subjects are rejected with 401
// and disabled accounts with 403.
func WithActor(loader ActorLoader, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(uint)
		if userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		actor, err := loader.LoadActor(c.UserContext(), userID)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrUnauthenticated):
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		case errors.Is(err, service.ErrForbidden):
			return utils.Fail(c, fiber.StatusForbidden, "account disabled", nil)
		default:
			logger.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Uint("user_id", userID).Msg("failed to load actor")
			return utils.Fail(c, fiber.StatusInternalServerError, "failed to load account", nil)
		}

		c.Locals(actorLocalsKey, actor)
		return c.Next()
	}
}

// ActorFromContext returns the actor bound by WithActor, or the anonymous actor.
func ActorFromContext(c *fiber.Ctx) service.Actor {
	if actor, ok := c.Locals(actorLocalsKey).(service.Actor); ok {
		return actor
	}
	return service.Actor{}
}
