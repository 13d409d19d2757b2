package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/service"
	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// ModerationHandler exposes moderator actions and the report queue.
type ModerationHandler struct {
	moderation service.ModerationService
	reports    service.ReportService
	logger     zerolog.Logger
}

// NewModerationHandler constructs a handler instance.
func NewModerationHandler(moderation service.ModerationService, reports service.ReportService, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		moderation: moderation,
		reports:    reports,
		logger:     logger.With().Str("component", "moderation_handler").Logger(),
	}
}

// Register binds the moderation routes. Reply deletion stays open to authors,
// every other route is gated by its permission.
func (h *ModerationHandler) Register(router fiber.Router) {
	router.Post("/replies/:id/delete", h.deleteReply)
	router.Post("/threads/:id/lock", middleware.RequirePermission(models.PermLockThread), h.lockThread)
	router.Post("/users/:id/ban", middleware.RequirePermission(models.PermChangeUser), h.banUser)

	queue := middleware.RequirePermission(models.PermDeleteAnyReply)
	router.Get("/reports", queue, h.listReports)
	router.Post("/reports/:id/resolve", queue, h.resolveReport)
	router.Get("/log", queue, h.listLog)
}

type moderationAction func(c *fiber.Ctx, actor service.Actor, id uint) (dto.ModerationResultResponse, error)

func (h *ModerationHandler) apply(c *fiber.Ctx, message string, action moderationAction) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := action(c, middleware.ActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result.RedirectTo = redirectTarget(c)
	if !result.Changed {
		message = "no change"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *ModerationHandler) deleteReply(c *fiber.Ctx) error {
	return h.apply(c, "reply deleted", func(c *fiber.Ctx, actor service.Actor, id uint) (dto.ModerationResultResponse, error) {
		return h.moderation.DeleteReply(withRequestContext(c), actor, id)
	})
}

func (h *ModerationHandler) lockThread(c *fiber.Ctx) error {
	return h.apply(c, "thread locked", func(c *fiber.Ctx, actor service.Actor, id uint) (dto.ModerationResultResponse, error) {
		return h.moderation.LockThread(withRequestContext(c), actor, id)
	})
}

func (h *ModerationHandler) banUser(c *fiber.Ctx) error {
	return h.apply(c, "user banned", func(c *fiber.Ctx, actor service.Actor, id uint) (dto.ModerationResultResponse, error) {
		return h.moderation.BanUser(withRequestContext(c), actor, id)
	})
}

func (h *ModerationHandler) resolveReport(c *fiber.Ctx) error {
	return h.apply(c, "report resolved", func(c *fiber.Ctx, actor service.Actor, id uint) (dto.ModerationResultResponse, error) {
		return h.reports.ResolveReport(withRequestContext(c), actor, id)
	})
}

func (h *ModerationHandler) listReports(c *fiber.Ctx) error {
	response, err := h.reports.ListReports(withRequestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "reports retrieved", response)
}

func (h *ModerationHandler) listLog(c *fiber.Ctx) error {
	var req dto.ModerationLogListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	response, err := h.moderation.ListLog(withRequestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, response.Items, "moderation log retrieved", response.Pagination)
}
