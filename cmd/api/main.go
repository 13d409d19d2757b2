package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/config"
	"github.com/noah-isme/campus-forum-api/internal/database"
	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/handler"
	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/repository"
	"github.com/noah-isme/campus-forum-api/internal/router"
	"github.com/noah-isme/campus-forum-api/internal/service"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup; main exits only after it returns.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	probes := []handler.HealthProbe{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	// Redis and NATS are optional: scores fall back to direct aggregation and events are dropped.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("score cache disabled")
		} else {
			defer redisClient.Close()
			probes = append(probes, handler.HealthProbe{
				Name:  "redis",
				Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			})
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("event publishing disabled")
		} else {
			defer natsConn.Drain()
			probes = append(probes, handler.HealthProbe{
				Name: "nats",
				Check: func(context.Context) error {
					if !natsConn.IsConnected() {
						return nats.ErrConnectionClosed
					}
					return nil
				},
			})
		}
	}
	publisher := events.NewNATSPublisher(natsConn, cfg.NATSSubject, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	threadRepo := repository.NewThreadRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	reportRepo := repository.NewReportRepository(db)
	moderationRepo := repository.NewModerationRepository(db)
	userRepo := repository.NewUserRepository(db)
	taxonomyRepo := repository.NewTaxonomyRepository(db)

	voteService := service.NewVoteService(voteRepo, threadRepo, replyRepo, redisClient, cfg.ScoreCacheTTL, logger)
	threadService := service.NewThreadService(threadRepo, replyRepo, taxonomyRepo, voteService, publisher, validate, service.ThreadServiceConfig{
		ThreadsPerPage: cfg.ThreadsPerPage,
		RepliesPerPage: cfg.RepliesPerPage,
	}, logger)
	moderationService := service.NewModerationService(moderationRepo, threadRepo, replyRepo, userRepo, publisher, validate, logger)
	reportService := service.NewReportService(reportRepo, moderationRepo, replyRepo, publisher, validate, cfg.RepliesPerPage, logger)
	accountService := service.NewAccountService(userRepo, logger)
	taxonomyService := service.NewTaxonomyService(taxonomyRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		AccountHandler:    handler.NewAccountHandler(accountService, logger),
		TaxonomyHandler:   handler.NewTaxonomyHandler(taxonomyService, logger),
		ThreadHandler:     handler.NewThreadHandler(threadService, logger),
		VoteHandler:       handler.NewVoteHandler(voteService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		ModerationHandler: handler.NewModerationHandler(moderationService, reportService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		ActorLoader:       accountService,
		HealthProbes:      probes,
		Logger:            logger,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(cfg.HTTPAddress())
	}()

	if err := waitForShutdown(app, serverErr, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return 1
	}
	return 0
}

func waitForShutdown(app *fiber.App, serverErr <-chan error, logger zerolog.Logger) error {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
	return nil
}
