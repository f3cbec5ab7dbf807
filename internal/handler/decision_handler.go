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

// DecisionHandler exposes the decision engine over HTTP.
type DecisionHandler struct {
	decisions service.DecisionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDecisionHandler constructs the handler.
func NewDecisionHandler(decisions service.DecisionService, validate *validator.Validate, logger zerolog.Logger) *DecisionHandler {
	return &DecisionHandler{
		decisions: decisions,
		validator: validate,
		logger:    logger.With().Str("component", "decision_handler").Logger(),
	}
}

// RegisterChapterRoutes attaches chapter-scoped decision endpoints.
func (h *DecisionHandler) RegisterChapterRoutes(router fiber.Router) {
	router.Get("/:id/decisions", h.listRuns)
	router.Post("/:id/decide", h.decide)
}

// RegisterDecisionRoutes attaches batch endpoints.
func (h *DecisionHandler) RegisterDecisionRoutes(router fiber.Router) {
	router.Post("/run-due", h.runDue)
}

func (h *DecisionHandler) listRuns(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if c.QueryBool("latest") {
		run, err := h.decisions.LatestRun(c.Context(), id)
		if err != nil {
			requestLogger(h.logger, c).Error().Err(err).Uint("chapter_id", id).Msg("failed to load latest decision run")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load decisions")
		}
		if run == nil {
			return utils.SendError(c, fiber.StatusNotFound, "no decision runs for chapter")
		}
		return utils.SendSuccess(c, "latest decision retrieved", dto.NewDecisionRunResponse(*run))
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	runs, err := h.decisions.ListRuns(c.Context(), id, limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("chapter_id", id).Msg("failed to list decision runs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load decisions")
	}

	return utils.SendSuccess(c, "decision runs retrieved", dto.NewDecisionRunResponseSlice(runs))
}

func (h *DecisionHandler) decide(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	payload := dto.DecideRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}
	if err := h.validator.Struct(payload); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	opts := service.DecisionOptions{
		Force:                   payload.Force,
		OnlyEvaluated:           !payload.IncludeUnevaluated,
		RespectMinContributions: !payload.IgnoreMinContributions,
		AutoRelease:             payload.AutoRelease,
		Persist:                 !payload.DryRun,
		Strategy:                payload.Strategy,
		TopK:                    payload.TopK,
	}

	run, err := h.decisions.Decide(c.Context(), id, opts)
	if err != nil {
		if errors.Is(err, service.ErrChapterNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "chapter not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("chapter_id", id).Msg("decision run failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "decision run failed")
	}

	return utils.SendSuccess(c, "decision run finished", dto.NewDecisionRunResponse(run))
}

func (h *DecisionHandler) runDue(c *fiber.Ctx) error {
	payload := dto.RunDueRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}
	if payload.MaxChapters == 0 {
		max, err := parseQueryInt(c, "max")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid max")
		}
		payload.MaxChapters = max
	}
	if err := h.validator.Struct(payload); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	runs, err := h.decisions.DecideAllDue(c.Context(), payload.MaxChapters)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("due-chapter sweep failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "sweep failed")
	}

	response := dto.RunDueResponse{
		ChaptersExamined: len(runs),
		RunsExecuted:     len(runs),
		Results:          dto.NewDecisionRunResponseSlice(runs),
	}
	return utils.SendSuccess(c, "due chapters processed", response)
}
