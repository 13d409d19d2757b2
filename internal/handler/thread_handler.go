package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/service"
	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// ThreadHandler exposes thread listing, thread detail and reply endpoints.
type ThreadHandler struct {
	service service.ThreadService
	logger  zerolog.Logger
}

// NewThreadHandler constructs a handler instance.
func NewThreadHandler(service service.ThreadService, logger zerolog.Logger) *ThreadHandler {
	return &ThreadHandler{
		service: service,
		logger:  logger.With().Str("component", "thread_handler").Logger(),
	}
}

// Register binds the thread routes.
func (h *ThreadHandler) Register(router fiber.Router) {
	router.Get("/", h.listThreads)
	router.Post("/", h.createThread)
	router.Get("/:id", h.getThread)
	router.Post("/:id/replies", h.createReply)
}

func (h *ThreadHandler) listThreads(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}

	query := service.ThreadListQuery{
		Page:     page,
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
	}

	response, err := h.service.ListThreads(withRequestContext(c), middleware.ActorFromContext(c), query)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "threads retrieved", response)
}

func (h *ThreadHandler) getThread(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}

	response, err := h.service.GetThread(withRequestContext(c), middleware.ActorFromContext(c), id, page)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "thread retrieved", response)
}

func (h *ThreadHandler) createThread(c *fiber.Ctx) error {
	var payload dto.ThreadCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.CreateThread(withRequestContext(c), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "thread created", response)
}

func (h *ThreadHandler) createReply(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReplyCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.CreateReply(withRequestContext(c), middleware.ActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderLocation, response.RedirectTo)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reply created", response)
}
