package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/dto"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/service"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/utils"
)

// ReleaseHandler exposes the course release gate over HTTP.
type ReleaseHandler struct {
	releases  service.ReleaseService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReleaseHandler constructs the handler.
func NewReleaseHandler(releases service.ReleaseService, validate *validator.Validate, logger zerolog.Logger) *ReleaseHandler {
	return &ReleaseHandler{
		releases:  releases,
		validator: validate,
		logger:    logger.With().Str("component", "release_handler").Logger(),
	}
}

// RegisterCourseRoutes attaches course-scoped release endpoints.
func (h *ReleaseHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/release", h.report)
	router.Post("/:id/release/evaluate", h.evaluate)
	router.Put("/:id/release/policy", h.updatePolicy)
}

func (h *ReleaseHandler) report(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	report, err := h.releases.Report(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", id).Msg("failed to load release report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load release report")
	}

	return utils.SendSuccess(c, "release report retrieved", report)
}

func (h *ReleaseHandler) evaluate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	report, err := h.releases.EvaluateRelease(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", id).Msg("release evaluation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "release evaluation failed")
	}

	return utils.SendSuccess(c, "release evaluated", report)
}

func (h *ReleaseHandler) updatePolicy(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ReleasePolicyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	policy, err := h.releases.UpdatePolicy(c.Context(), id, payload)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", id).Msg("failed to update release policy")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update release policy")
	}

	return utils.SendSuccess(c, "release policy updated", policy)
}
