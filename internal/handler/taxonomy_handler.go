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

// TaxonomyHandler exposes categories, tags and courses.
type TaxonomyHandler struct {
	service service.TaxonomyService
	logger  zerolog.Logger
}

// NewTaxonomyHandler constructs a handler instance.
func NewTaxonomyHandler(service service.TaxonomyService, logger zerolog.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		service: service,
		logger:  logger.With().Str("component", "taxonomy_handler").Logger(),
	}
}

// Register binds the taxonomy routes. Writes require a superuser.
func (h *TaxonomyHandler) Register(router fiber.Router) {
	superuser := middleware.RequirePermission(models.PermSuperuser)

	router.Get("/categories", h.listCategories)
	router.Post("/categories", superuser, h.createCategory)
	router.Delete("/categories/:slug", superuser, h.deleteCategory)

	router.Get("/tags", h.listTags)
	router.Post("/tags", superuser, h.createTag)

	router.Get("/courses", h.listCourses)
	router.Post("/courses", superuser, h.createCourse)
	router.Post("/courses/:id/resources", superuser, h.addResource)
}

func (h *TaxonomyHandler) listCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "categories retrieved", categories)
}

func (h *TaxonomyHandler) createCategory(c *fiber.Ctx) error {
	var payload dto.CategoryCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	category, err := h.service.CreateCategory(withRequestContext(c), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "category created", category)
}

func (h *TaxonomyHandler) deleteCategory(c *fiber.Ctx) error {
	if err := h.service.DeleteCategory(withRequestContext(c), middleware.ActorFromContext(c), c.Params("slug")); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "category deleted", nil)
}

func (h *TaxonomyHandler) listTags(c *fiber.Ctx) error {
	tags, err := h.service.ListTags(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "tags retrieved", tags)
}

func (h *TaxonomyHandler) createTag(c *fiber.Ctx) error {
	var payload dto.TagCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	tag, err := h.service.CreateTag(withRequestContext(c), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "tag created", tag)
}

func (h *TaxonomyHandler) listCourses(c *fiber.Ctx) error {
	courses, err := h.service.ListCourses(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *TaxonomyHandler) createCourse(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.CreateCourse(withRequestContext(c), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *TaxonomyHandler) addResource(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ResourceCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resource, err := h.service.AddResource(withRequestContext(c), middleware.ActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "resource added", resource)
}
