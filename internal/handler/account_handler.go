package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/service"
	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// AccountHandler exposes the current user's profile.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler constructs a handler instance.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("component", "account_handler").Logger(),
	}
}

// Register binds the account routes.
func (h *AccountHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *AccountHandler) me(c *fiber.Ctx) error {
	response, err := h.service.Me(withRequestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile retrieved", response)
}
