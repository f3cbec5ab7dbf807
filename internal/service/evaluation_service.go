package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/observability"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/repository"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/scoring"
)

// ErrSubmissionNotFound indicates the submission was not located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrExtractionNotReady indicates the extraction payload is still pending and
// the caller asked not to wait.
var ErrExtractionNotReady = errors.New("extraction payload not ready")

// ErrExtractionTimeout indicates the readiness poll exhausted its budget.
var ErrExtractionTimeout = errors.New("timed out waiting for extraction payload")

const (
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// EvaluationConfig bounds the extraction readiness poll.
type EvaluationConfig struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// EvaluationService runs the five scoring agents over one submission.
type EvaluationService interface {
	// EvaluateSubmission scores a submission across all dimensions. With
	// wait set it polls for extraction readiness up to the configured
	// timeout; otherwise a pending payload fails fast.
	EvaluateSubmission(ctx context.Context, submissionID uint, wait bool) (models.ScoreRecord, error)
}

type evaluationService struct {
	submissions repository.SubmissionRepository
	extractions repository.ExtractionRepository
	scores      repository.ScoreRepository
	chapters    repository.ChapterRepository
	courses     repository.CourseRepository
	agents      []scoring.Agent
	bus         EventBus
	config      EvaluationConfig
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEvaluationService constructs the scoring orchestrator. Agents run in the
// fixed order clarity, engagement, coherence, completeness, accuracy; a
// failing agent never blocks the ones after it.
func NewEvaluationService(
	submissions repository.SubmissionRepository,
	extractions repository.ExtractionRepository,
	scores repository.ScoreRepository,
	chapters repository.ChapterRepository,
	courses repository.CourseRepository,
	agents []scoring.Agent,
	bus EventBus,
	config EvaluationConfig,
	logger zerolog.Logger,
) EvaluationService {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = defaultPollTimeout
	}

	ordered := make([]scoring.Agent, 0, len(scoring.EvaluationOrder))
	byDimension := make(map[scoring.Dimension]scoring.Agent, len(agents))
	for _, agent := range agents {
		byDimension[agent.Dimension()] = agent
	}
	for _, dim := range scoring.EvaluationOrder {
		if agent, ok := byDimension[dim]; ok {
			ordered = append(ordered, agent)
		}
	}

	return &evaluationService{
		submissions: submissions,
		extractions: extractions,
		scores:      scores,
		chapters:    chapters,
		courses:     courses,
		agents:      ordered,
		bus:         bus,
		config:      config,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/adhyayan-oer/adhyayan-go-api/internal/service/evaluation"),
		now:         time.Now,
	}
}

func (s *evaluationService) EvaluateSubmission(ctx context.Context, submissionID uint, wait bool) (models.ScoreRecord, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.run", trace.WithAttributes(
		attribute.Int64("evaluation.submission_id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return models.ScoreRecord{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return models.ScoreRecord{}, err
	}

	payload, err := s.awaitPayload(ctx, submissionID, wait)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction_unavailable")
		observability.EvaluationRuns().WithLabelValues("extraction_unavailable").Inc()
		return models.ScoreRecord{}, err
	}

	level, err := s.resolveLevel(ctx, submission.ChapterID)
	if err != nil {
		span.RecordError(err)
		return models.ScoreRecord{}, err
	}
	span.SetAttributes(attribute.String("evaluation.level", string(level)))

	failures := 0
	for _, agent := range s.agents {
		dim := agent.Dimension()
		value, diag, scoreErr := agent.Score(ctx, payload, level)
		if scoreErr != nil {
			failures++
			observability.AgentScores().WithLabelValues(dim.String(), "error").Inc()
			s.logger.Warn().Err(scoreErr).
				Uint("submission_id", submissionID).
				Str("dimension", dim.String()).
				Msg("agent scoring failed")
			continue
		}

		if err := s.scores.WriteDimension(ctx, submissionID, dim, value); err != nil {
			failures++
			observability.AgentScores().WithLabelValues(dim.String(), "write_error").Inc()
			s.logger.Error().Err(err).
				Uint("submission_id", submissionID).
				Str("dimension", dim.String()).
				Msg("failed to persist dimension score")
			continue
		}

		observability.AgentScores().WithLabelValues(dim.String(), "ok").Inc()
		if fallback, ok := diag["ai_fallback"].(bool); ok && fallback {
			observability.AgentScores().WithLabelValues(dim.String(), "ai_fallback").Inc()
		}
	}

	record, err := s.scores.GetBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.EvaluationRuns().WithLabelValues("no_scores").Inc()
			return models.ScoreRecord{}, fmt.Errorf("no dimension scores written for submission %d", submissionID)
		}
		span.RecordError(err)
		return models.ScoreRecord{}, err
	}

	evaluated := record.Complete()
	if evaluated && !submission.Evaluated {
		if err := s.submissions.SetEvaluated(ctx, submissionID, true); err != nil {
			span.RecordError(err)
			return models.ScoreRecord{}, err
		}
	}

	outcome := "complete"
	if !evaluated {
		outcome = "partial"
	}
	observability.EvaluationRuns().WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.Bool("evaluation.complete", evaluated),
		attribute.Int("evaluation.agent_failures", failures),
	)

	if s.bus != nil {
		event := ScoresCompletedEvent{
			SubmissionID: submissionID,
			ChapterID:    submission.ChapterID,
			Evaluated:    evaluated,
			OccurredAt:   s.now().UTC(),
		}
		if err := s.bus.PublishScoresCompleted(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to publish scores event")
		}
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Bool("evaluated", evaluated).
		Int("agent_failures", failures).
		Msg("scoring run finished")

	return record, nil
}

// awaitPayload loads the extraction payload, polling for readiness when asked.
// The poll is bounded; there is no retry beyond it.
func (s *evaluationService) awaitPayload(ctx context.Context, submissionID uint, wait bool) (scoring.Payload, error) {
	start := s.now()
	defer func() {
		observability.ExtractionWait().Observe(s.now().Sub(start).Seconds())
	}()

	ready, err := s.extractions.IsReady(ctx, submissionID)
	if err != nil {
		return scoring.Payload{}, err
	}

	if !ready {
		if !wait {
			return scoring.Payload{}, ErrExtractionNotReady
		}

		deadline := start.Add(s.config.PollTimeout)
		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()

		for !ready {
			select {
			case <-ctx.Done():
				return scoring.Payload{}, ctx.Err()
			case <-ticker.C:
			}

			if s.now().After(deadline) {
				return scoring.Payload{}, ErrExtractionTimeout
			}
			ready, err = s.extractions.IsReady(ctx, submissionID)
			if err != nil {
				return scoring.Payload{}, err
			}
		}
	}

	record, err := s.extractions.GetBySubmission(ctx, submissionID)
	if err != nil {
		return scoring.Payload{}, err
	}
	return scoring.ParsePayload(record.Payload)
}

func (s *evaluationService) resolveLevel(ctx context.Context, chapterID uint) (scoring.Level, error) {
	chapter, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return scoring.LevelDefault, err
	}
	course, err := s.courses.GetByID(ctx, chapter.CourseID)
	if err != nil {
		return scoring.LevelDefault, err
	}
	return scoring.Normalize(course.EducationLevel), nil
}
