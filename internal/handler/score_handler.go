package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/dto"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/service"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/utils"
)

// ScoreHandler serves scoring results and triggers evaluation runs.
type ScoreHandler struct {
	scores     service.ScoreService
	evaluation service.EvaluationService
	logger     zerolog.Logger
}

// NewScoreHandler constructs the handler.
func NewScoreHandler(scores service.ScoreService, evaluation service.EvaluationService, logger zerolog.Logger) *ScoreHandler {
	return &ScoreHandler{
		scores:     scores,
		evaluation: evaluation,
		logger:     logger.With().Str("component", "score_handler").Logger(),
	}
}

// RegisterChapterRoutes attaches chapter-scoped score endpoints.
func (h *ScoreHandler) RegisterChapterRoutes(router fiber.Router) {
	router.Get("/:id/scores", h.chapterScoreboard)
}

// RegisterSubmissionRoutes attaches submission-scoped score endpoints.
func (h *ScoreHandler) RegisterSubmissionRoutes(router fiber.Router) {
	router.Get("/:id/score", h.submissionScore)
	router.Post("/:id/evaluate", h.evaluate)
}

func (h *ScoreHandler) chapterScoreboard(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	scoreboard, err := h.scores.ChapterScoreboard(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrChapterNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "chapter not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("chapter_id", id).Msg("failed to load chapter scoreboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load scores")
	}

	return utils.SendSuccess(c, "chapter scores retrieved", scoreboard)
}

func (h *ScoreHandler) submissionScore(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	score, err := h.scores.SubmissionScore(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrScoreNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission has no scores yet")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", id).Msg("failed to load submission score")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load score")
		}
	}

	return utils.SendSuccess(c, "submission score retrieved", score)
}

func (h *ScoreHandler) evaluate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	payload := dto.EvaluateSubmissionRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	record, err := h.evaluation.EvaluateSubmission(c.Context(), id, payload.Wait)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrExtractionNotReady):
			return utils.SendError(c, fiber.StatusConflict, "extraction payload not ready")
		case errors.Is(err, service.ErrExtractionTimeout):
			return utils.SendError(c, fiber.StatusGatewayTimeout, "timed out waiting for extraction payload")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", id).Msg("failed to evaluate submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to evaluate submission")
		}
	}

	return utils.SendSuccess(c, "submission evaluated", record)
}
