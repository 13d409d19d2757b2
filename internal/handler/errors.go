package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/service"
	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// statusForError maps service error categories onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidArgument), isValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrConstraintViolation):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal failures are logged and their detail withheld.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	status := statusForError(err)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
		}
		return utils.Fail(c, status, "validation failed", details)
	}

	if status == fiber.StatusInternalServerError {
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return utils.SendError(c, status, "internal server error")
	}

	return utils.SendError(c, status, err.Error())
}
