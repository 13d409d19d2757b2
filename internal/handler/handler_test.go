package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/service"
)

type staticActorLoader map[uint]service.Actor

func (s staticActorLoader) LoadActor(ctx context.Context, userID uint) (service.Actor, error) {
	actor, ok := s[userID]
	if !ok {
		return service.Actor{}, service.ErrUnauthenticated
	}
	return actor, nil
}

// newTestApp authenticates requests from the X-User header against the given actors.
func newTestApp(actors staticActorLoader) (*fiber.App, fiber.Router) {
	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		if raw := c.Get("X-User"); raw != "" {
			var id uint
			_ = json.Unmarshal([]byte(raw), &id)
			c.Locals("user_id", id)
		}
		return c.Next()
	}, middleware.WithActor(actors, zerolog.Nop()))
	return app, api
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
	Meta    json.RawMessage   `json:"meta"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
