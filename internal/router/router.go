package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/config"
	"github.com/noah-isme/campus-forum-api/internal/handler"
	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AccountHandler    *handler.AccountHandler
	TaxonomyHandler   *handler.TaxonomyHandler
	ThreadHandler     *handler.ThreadHandler
	VoteHandler       *handler.VoteHandler
	ReportHandler     *handler.ReportHandler
	ModerationHandler *handler.ModerationHandler
	JWTMiddleware     fiber.Handler
	ActorLoader       middleware.ActorLoader
	HealthProbes      []handler.HealthProbe
	Logger            zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Public routes must be registered before the authenticated group claims the prefix.
	public := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	public.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api/v1", jwtMiddleware, middleware.WithActor(deps.ActorLoader, deps.Logger))

	if deps.AccountHandler != nil {
		deps.AccountHandler.Register(api)
	}

	if deps.TaxonomyHandler != nil {
		deps.TaxonomyHandler.Register(api)
	}

	if deps.ThreadHandler != nil {
		deps.ThreadHandler.Register(api.Group("/threads"))
	}

	// Votes and reports are throttled per caller.
	if deps.VoteHandler != nil {
		deps.VoteHandler.Register(api.Group("/vote", middleware.RateLimit("vote", cfg.RateLimitMax, cfg.RateLimitWindow)))
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", middleware.RateLimit("report", cfg.RateLimitMax, cfg.RateLimitWindow)))
	}

	if deps.ModerationHandler != nil {
		deps.ModerationHandler.Register(api.Group("/mod"))
	}
}
