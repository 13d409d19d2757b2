package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/service"
	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// VoteHandler exposes the vote toggle endpoint.
type VoteHandler struct {
	service service.VoteService
	logger  zerolog.Logger
}

// NewVoteHandler constructs a handler instance.
func NewVoteHandler(service service.VoteService, logger zerolog.Logger) *VoteHandler {
	return &VoteHandler{
		service: service,
		logger:  logger.With().Str("component", "vote_handler").Logger(),
	}
}

// Register binds the vote routes.
func (h *VoteHandler) Register(router fiber.Router) {
	router.Post("/:kind/:id/:direction", h.cast)
}

func (h *VoteHandler) cast(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.CastVote(withRequestContext(c), middleware.ActorFromContext(c), c.Params("kind"), id, c.Params("direction"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "vote recorded", response)
}
