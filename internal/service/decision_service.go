package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/dto"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/observability"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/repository"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/scoring"
)

// ErrChapterNotFound indicates the chapter was not located.
var ErrChapterNotFound = errors.New("chapter not found")

// Missing-value policies for composite scoring.
const (
	MissingPolicyIgnore = "ignore"
	MissingPolicyZero   = "zero"
)

const defaultTopK = 10

// DecisionConfig holds the tunable parameters of the decision engine.
type DecisionConfig struct {
	Strategy string
	// Weights maps each dimension to its composite weight; absent
	// dimensions default to 1.0.
	Weights       map[scoring.Dimension]float64
	MissingPolicy string
	// Priority orders the tie-break dimensions.
	Priority []scoring.Dimension
	TopK     int
	// AutoReleaseOnDecide flips chapter release state whenever a winner is
	// picked, without waiting for the course-level gate.
	AutoReleaseOnDecide bool
}

func (c DecisionConfig) normalized() DecisionConfig {
	if c.Strategy != models.StrategySimpleAverage {
		c.Strategy = models.StrategyWeightedAverage
	}
	if c.MissingPolicy != MissingPolicyZero {
		c.MissingPolicy = MissingPolicyIgnore
	}
	if len(c.Priority) == 0 {
		c.Priority = scoring.DefaultTieBreakPriority
	}
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
	weights := make(map[scoring.Dimension]float64, len(scoring.Dimensions))
	for _, dim := range scoring.Dimensions {
		weights[dim] = 1.0
		if w, ok := c.Weights[dim]; ok {
			weights[dim] = w
		}
	}
	c.Weights = weights
	return c
}

// DecisionOptions tunes a single engine invocation.
type DecisionOptions struct {
	// Force skips the deadline gate.
	Force bool
	// OnlyEvaluated restricts candidates to fully scored submissions.
	OnlyEvaluated bool
	// RespectMinContributions enforces the chapter policy minimum.
	RespectMinContributions bool
	// AutoRelease overrides the configured auto-release behaviour when non-nil.
	AutoRelease *bool
	// Persist writes the audit row and winner flags; a dry run skips both.
	Persist bool
	// Strategy overrides the configured strategy when non-empty.
	Strategy string
	TopK     int
}

// DefaultDecisionOptions mirrors the standard pipeline invocation.
func DefaultDecisionOptions() DecisionOptions {
	return DecisionOptions{
		OnlyEvaluated:           true,
		RespectMinContributions: true,
		Persist:                 true,
	}
}

// DecisionService selects the winning submission per chapter.
type DecisionService interface {
	Decide(ctx context.Context, chapterID uint, opts DecisionOptions) (models.DecisionRun, error)
	// TriggerIfDue runs Decide with default options when the chapter's
	// deadline has lapsed and the guard conditions hold. A nil run with a
	// nil error means the trigger was skipped.
	TriggerIfDue(ctx context.Context, chapterID uint) (*models.DecisionRun, error)
	// DecideAllDue sweeps chapters whose deadline has passed, oldest
	// deadline first, bounded by maxChapters when positive.
	DecideAllDue(ctx context.Context, maxChapters int) ([]models.DecisionRun, error)
	LatestRun(ctx context.Context, chapterID uint) (*models.DecisionRun, error)
	ListRuns(ctx context.Context, chapterID uint, limit int) ([]models.DecisionRun, error)
}

type decisionService struct {
	chapters    repository.ChapterRepository
	submissions repository.SubmissionRepository
	scores      repository.ScoreRepository
	decisions   repository.DecisionRepository
	bus         EventBus
	config      DecisionConfig
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewDecisionService constructs the decision engine.
func NewDecisionService(
	chapters repository.ChapterRepository,
	submissions repository.SubmissionRepository,
	scores repository.ScoreRepository,
	decisions repository.DecisionRepository,
	bus EventBus,
	config DecisionConfig,
	logger zerolog.Logger,
) DecisionService {
	return &decisionService{
		chapters:    chapters,
		submissions: submissions,
		scores:      scores,
		decisions:   decisions,
		bus:         bus,
		config:      config.normalized(),
		logger:      logger.With().Str("component", "decision_service").Logger(),
		tracer:      otel.Tracer("github.com/adhyayan-oer/adhyayan-go-api/internal/service/decision"),
		now:         time.Now,
	}
}

// rankedCandidate is one submission's standing after composite scoring.
type rankedCandidate struct {
	SubmissionID   uint
	ContributorID  uint
	CreatedAt      time.Time
	CompositeScore float64
	Scores         map[scoring.Dimension]*float64
	ScoredCount    int
}

func (s *decisionService) Decide(ctx context.Context, chapterID uint, opts DecisionOptions) (models.DecisionRun, error) {
	ctx, span := s.tracer.Start(ctx, "decision.run", trace.WithAttributes(
		attribute.Int64("decision.chapter_id", int64(chapterID)),
		attribute.Bool("decision.force", opts.Force),
		attribute.Bool("decision.persist", opts.Persist),
	))
	defer span.End()

	chapter, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "chapter_not_found")
			return models.DecisionRun{}, ErrChapterNotFound
		}
		span.RecordError(err)
		return models.DecisionRun{}, err
	}

	policy, err := s.chapters.GetPolicy(ctx, chapterID)
	if err != nil {
		span.RecordError(err)
		return models.DecisionRun{}, err
	}

	strategy := s.config.Strategy
	if opts.Strategy != "" {
		strategy = opts.Strategy
	}
	topK := s.config.TopK
	if opts.TopK > 0 {
		topK = opts.TopK
	}

	if policy != nil && !opts.Force && policy.IsOpen(s.now()) {
		return s.finishRun(ctx, span, chapter, policy, opts, runOutcome{
			Status:      models.DecisionStatusNotDue,
			Strategy:    strategy,
			Explanation: "deadline_not_passed",
		})
	}

	submissionList, err := s.submissions.List(ctx, repository.SubmissionFilter{
		ChapterID:     &chapterID,
		EvaluatedOnly: opts.OnlyEvaluated,
	})
	if err != nil {
		span.RecordError(err)
		return models.DecisionRun{}, err
	}

	if policy != nil && opts.RespectMinContributions && len(submissionList) < policy.MinContributions {
		return s.finishRun(ctx, span, chapter, policy, opts, runOutcome{
			Status:      models.DecisionStatusNotReady,
			Strategy:    strategy,
			Explanation: fmt.Sprintf("min_contributions_not_met: %d/%d", len(submissionList), policy.MinContributions),
		})
	}

	ranked, err := s.rank(ctx, chapterID, submissionList, strategy)
	if err != nil {
		span.RecordError(err)
		return models.DecisionRun{}, err
	}

	if len(ranked) == 0 {
		return s.finishRun(ctx, span, chapter, policy, opts, runOutcome{
			Status:      models.DecisionStatusNoCandidates,
			Strategy:    strategy,
			Explanation: "no_scored_submissions",
		})
	}

	winner := ranked[0]
	if topK < len(ranked) {
		ranked = ranked[:topK]
	}

	return s.finishRun(ctx, span, chapter, policy, opts, runOutcome{
		Status:      models.DecisionStatusOK,
		Strategy:    strategy,
		Explanation: "selected",
		Winner:      &winner,
		Ranked:      ranked,
	})
}

// rank computes composite scores and orders candidates under a strict total
// order: composite, then the priority dimensions, then scored count, then
// recency, then submission ID, all descending.
func (s *decisionService) rank(ctx context.Context, chapterID uint, submissions []models.Submission, strategy string) ([]rankedCandidate, error) {
	records, err := s.scores.ListByChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	recordBySubmission := make(map[uint]models.ScoreRecord, len(records))
	for _, record := range records {
		recordBySubmission[record.SubmissionID] = record
	}

	candidates := make([]rankedCandidate, 0, len(submissions))
	for _, submission := range submissions {
		record, ok := recordBySubmission[submission.ID]
		if !ok {
			continue
		}

		dimScores := map[scoring.Dimension]*float64{
			scoring.DimensionClarity:      record.Clarity,
			scoring.DimensionCoherence:    record.Coherence,
			scoring.DimensionCompleteness: record.Completeness,
			scoring.DimensionAccuracy:     record.Accuracy,
			scoring.DimensionEngagement:   record.Engagement,
		}

		composite, ok := s.composite(dimScores, strategy)
		if !ok {
			continue
		}

		scored := 0
		for _, v := range dimScores {
			if v != nil {
				scored++
			}
		}

		candidates = append(candidates, rankedCandidate{
			SubmissionID:   submission.ID,
			ContributorID:  submission.ContributorID,
			CreatedAt:      submission.CreatedAt,
			CompositeScore: composite,
			Scores:         dimScores,
			ScoredCount:    scored,
		})
	}

	priority := s.config.Priority
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		for _, dim := range priority {
			av := dimValueOrNegInf(a.Scores[dim])
			bv := dimValueOrNegInf(b.Scores[dim])
			if av != bv {
				return av > bv
			}
		}
		if a.ScoredCount != b.ScoredCount {
			return a.ScoredCount > b.ScoredCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.SubmissionID > b.SubmissionID
	})

	return candidates, nil
}

func dimValueOrNegInf(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}

// composite returns the candidate's aggregate score. The second return is
// false when the denominator is zero, which excludes the candidate entirely.
func (s *decisionService) composite(scores map[scoring.Dimension]*float64, strategy string) (float64, bool) {
	num, den := 0.0, 0.0
	for _, dim := range scoring.Dimensions {
		weight := 1.0
		if strategy != models.StrategySimpleAverage {
			weight = s.config.Weights[dim]
		}
		if weight == 0 {
			continue
		}
		v := scores[dim]
		if v == nil {
			if s.config.MissingPolicy == MissingPolicyZero {
				den += weight
			}
			continue
		}
		num += *v * weight
		den += weight
	}
	if den <= 0 {
		return 0, false
	}
	return num / den, true
}

// runOutcome carries everything finishRun needs to build the audit row.
type runOutcome struct {
	Status      string
	Strategy    string
	Explanation string
	Winner      *rankedCandidate
	Ranked      []rankedCandidate
}

func (s *decisionService) finishRun(ctx context.Context, span trace.Span, chapter models.Chapter, policy *models.ChapterPolicy, opts DecisionOptions, outcome runOutcome) (models.DecisionRun, error) {
	run := models.DecisionRun{
		ChapterID:   chapter.ID,
		RunID:       uuid.NewString(),
		Status:      outcome.Status,
		Strategy:    outcome.Strategy,
		Explanation: outcome.Explanation,
		IsLatest:    true,
		CreatedAt:   s.now(),
	}

	weights := make(map[string]float64, len(s.config.Weights))
	for dim, w := range s.config.Weights {
		weights[dim.String()] = w
	}
	run.Weights = mustJSON(weights)

	thresholds := map[string]interface{}{"min_contributions": 0}
	if policy != nil {
		thresholds["min_contributions"] = policy.MinContributions
	}
	run.Thresholds = mustJSON(thresholds)

	if outcome.Winner != nil {
		winnerID := outcome.Winner.SubmissionID
		composite := outcome.Winner.CompositeScore
		run.SelectedSubmissionID = &winnerID
		run.CompositeScore = &composite
	}
	if len(outcome.Ranked) > 0 {
		leaderboard := make([]dto.RankedCandidate, 0, len(outcome.Ranked))
		for _, c := range outcome.Ranked {
			leaderboard = append(leaderboard, dto.RankedCandidate{
				SubmissionID:   c.SubmissionID,
				CompositeScore: c.CompositeScore,
				ScoredCount:    c.ScoredCount,
				Scores:         dimScoreMap(c.Scores),
			})
		}
		run.Ranking = mustJSON(leaderboard)
	}

	if opts.Persist {
		autoRelease := s.config.AutoReleaseOnDecide
		if opts.AutoRelease != nil {
			autoRelease = *opts.AutoRelease
		}

		persistOutcome := repository.DecisionOutcome{
			ChapterID:   chapter.ID,
			Run:         &run,
			AutoRelease: autoRelease,
		}
		if outcome.Winner != nil {
			persistOutcome.WinnerSubmissionID = outcome.Winner.SubmissionID
		}
		if err := s.decisions.Persist(ctx, persistOutcome); err != nil {
			span.RecordError(err)
			return models.DecisionRun{}, err
		}
	}

	observability.DecisionRuns().WithLabelValues(outcome.Status).Inc()
	span.SetAttributes(
		attribute.String("decision.status", outcome.Status),
		attribute.String("decision.strategy", outcome.Strategy),
	)

	logEvent := s.logger.Info().
		Uint("chapter_id", chapter.ID).
		Str("run_id", run.RunID).
		Str("status", outcome.Status)
	if outcome.Winner != nil {
		logEvent = logEvent.Uint("selected_submission_id", outcome.Winner.SubmissionID)
	}
	logEvent.Msg("decision run finished")

	if opts.Persist && s.bus != nil {
		event := DecisionCompletedEvent{
			ChapterID:            chapter.ID,
			CourseID:             chapter.CourseID,
			RunID:                run.RunID,
			Status:               outcome.Status,
			SelectedSubmissionID: run.SelectedSubmissionID,
			OccurredAt:           s.now().UTC(),
		}
		if err := s.bus.PublishDecisionCompleted(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("chapter_id", chapter.ID).Msg("failed to publish decision event")
		}
	}

	return run, nil
}

func (s *decisionService) TriggerIfDue(ctx context.Context, chapterID uint) (*models.DecisionRun, error) {
	policy, err := s.chapters.GetPolicy(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if policy == nil || policy.IsOpen(s.now()) {
		return nil, nil
	}

	evaluated, err := s.submissions.CountEvaluated(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if evaluated < int64(policy.MinContributions) {
		return nil, nil
	}

	latest, err := s.decisions.LatestByChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Selected() {
		return nil, nil
	}

	run, err := s.Decide(ctx, chapterID, DefaultDecisionOptions())
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *decisionService) DecideAllDue(ctx context.Context, maxChapters int) ([]models.DecisionRun, error) {
	policies, err := s.chapters.ListDuePolicies(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if maxChapters > 0 && len(policies) > maxChapters {
		policies = policies[:maxChapters]
	}

	runs := make([]models.DecisionRun, 0, len(policies))
	for _, policy := range policies {
		run, err := s.TriggerIfDue(ctx, policy.ChapterID)
		if err != nil {
			s.logger.Error().Err(err).Uint("chapter_id", policy.ChapterID).Msg("due-chapter decision failed")
			continue
		}
		if run != nil {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

func (s *decisionService) LatestRun(ctx context.Context, chapterID uint) (*models.DecisionRun, error) {
	return s.decisions.LatestByChapter(ctx, chapterID)
}

func (s *decisionService) ListRuns(ctx context.Context, chapterID uint, limit int) ([]models.DecisionRun, error) {
	return s.decisions.ListByChapter(ctx, chapterID, limit)
}

func mustJSON(v interface{}) datatypes.JSON {
	payload, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(payload)
}

func dimScoreMap(scores map[scoring.Dimension]*float64) map[string]*float64 {
	out := make(map[string]*float64, len(scores))
	for dim, v := range scores {
		out[dim.String()] = v
	}
	return out
}
