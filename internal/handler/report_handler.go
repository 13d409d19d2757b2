package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/service"
	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// ReportHandler exposes report filing endpoints.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs a handler instance.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register binds the report filing routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Post("/", h.file)
	router.Post("/:kind/:id", h.fileForTarget)
}

func (h *ReportHandler) file(c *fiber.Ctx) error {
	var payload dto.ReportCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	return h.submit(c, payload)
}

func (h *ReportHandler) fileForTarget(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var body dto.ReportReasonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	return h.submit(c, dto.ReportCreateRequest{
		TargetKind: c.Params("kind"),
		TargetID:   id,
		Reason:     body.Reason,
	})
}

func (h *ReportHandler) submit(c *fiber.Ctx, payload dto.ReportCreateRequest) error {
	response, err := h.service.FileReport(withRequestContext(c), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "report submitted", response)
}
