package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/dto"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/observability"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/repository"
)

// ErrCourseNotFound indicates the course was not located.
var ErrCourseNotFound = errors.New("course not found")

const releaseReportTTL = 30 * time.Second

// ReleaseService decides which winning submissions a course exposes.
type ReleaseService interface {
	// EvaluateRelease recomputes the course release state wholesale and
	// reconciles every ReleaseState row against the verdict.
	EvaluateRelease(ctx context.Context, courseID uint) (dto.CourseReleaseReport, error)
	// Report serves the cached verdict when fresh, recomputing otherwise.
	Report(ctx context.Context, courseID uint) (dto.CourseReleaseReport, error)
	UpdatePolicy(ctx context.Context, courseID uint, payload dto.ReleasePolicyRequest) (models.ReleasePolicy, error)
}

type releaseService struct {
	courses     repository.CourseRepository
	scores      repository.ScoreRepository
	submissions repository.SubmissionRepository
	releases    repository.ReleaseRepository
	redis       *redis.Client
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReleaseService constructs the release gate.
func NewReleaseService(
	courses repository.CourseRepository,
	scores repository.ScoreRepository,
	submissions repository.SubmissionRepository,
	releases repository.ReleaseRepository,
	redisClient *redis.Client,
	logger zerolog.Logger,
) ReleaseService {
	return &releaseService{
		courses:     courses,
		scores:      scores,
		submissions: submissions,
		releases:    releases,
		redis:       redisClient,
		logger:      logger.With().Str("component", "release_service").Logger(),
		tracer:      otel.Tracer("github.com/adhyayan-oer/adhyayan-go-api/internal/service/release"),
		now:         time.Now,
	}
}

// requiredChapters computes how many chapters must have winners before the
// course opens. Zero totals and zero thresholds never require anything.
func requiredChapters(total, thresholdPct int) int {
	if total <= 0 || thresholdPct <= 0 {
		return 0
	}
	required := total * thresholdPct / 100
	if required < 1 {
		required = 1
	}
	return required
}

func (s *releaseService) EvaluateRelease(ctx context.Context, courseID uint) (dto.CourseReleaseReport, error) {
	ctx, span := s.tracer.Start(ctx, "release.evaluate", trace.WithAttributes(
		attribute.Int64("release.course_id", int64(courseID)),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "course_not_found")
			return dto.CourseReleaseReport{}, ErrCourseNotFound
		}
		span.RecordError(err)
		return dto.CourseReleaseReport{}, err
	}

	policy, err := s.courses.GetReleasePolicy(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.CourseReleaseReport{}, err
	}

	chapters, err := s.courses.ListChapters(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.CourseReleaseReport{}, err
	}

	report := dto.CourseReleaseReport{
		CourseID:            course.ID,
		Strategy:            policy.Strategy,
		AutoReleaseEnabled:  policy.AutoReleaseEnabled,
		ThresholdPercentage: policy.ThresholdPercentage,
		TotalChapters:       len(chapters),
		RequiredChapters:    requiredChapters(len(chapters), policy.ThresholdPercentage),
		GeneratedAt:         s.now().UTC(),
	}

	winners := make([]uint, len(chapters))
	for i, chapter := range chapters {
		winnerID, err := s.scores.WinnerSubmissionID(ctx, chapter.ID)
		if err != nil {
			span.RecordError(err)
			return dto.CourseReleaseReport{}, err
		}
		winners[i] = winnerID
	}

	if !policy.AutoReleaseEnabled {
		// Nothing is written while the gate is off, so the report mirrors
		// whatever release state is already persisted.
		released, err := s.persistedReleases(ctx, courseID, chapters, winners)
		if err != nil {
			span.RecordError(err)
			return dto.CourseReleaseReport{}, err
		}
		report.Status = dto.ReleaseStatusDisabled
		report.Chapters = chapterRows(chapters, winners, released)
		observability.ReleaseEvaluations().WithLabelValues(policy.Strategy).Inc()
		s.cacheReport(ctx, report)
		return report, nil
	}

	var toRelease map[uint]bool
	switch policy.Strategy {
	case models.ReleaseStrategyThresholdOnly:
		ready := 0
		for _, winnerID := range winners {
			if winnerID != 0 {
				ready++
			}
		}
		report.ReadyChapters = ready
		report.ThresholdMet = ready >= report.RequiredChapters
		if report.ThresholdMet {
			toRelease = make(map[uint]bool, ready)
			for i, winnerID := range winners {
				if winnerID != 0 {
					toRelease[chapters[i].ID] = true
				}
			}
		}
	default:
		// Sequential: only the unbroken leading run of chapters with
		// winners counts, gaps block everything after them.
		prefix := 0
		for _, winnerID := range winners {
			if winnerID == 0 {
				break
			}
			prefix++
		}
		report.ReadyChapters = prefix
		report.ThresholdMet = prefix >= report.RequiredChapters
		if report.ThresholdMet {
			toRelease = make(map[uint]bool, prefix)
			for i := 0; i < prefix; i++ {
				toRelease[chapters[i].ID] = true
			}
		}
	}

	if report.ThresholdMet {
		releasedIDs := make([]uint, 0, len(toRelease))
		for i, chapter := range chapters {
			if toRelease[chapter.ID] && winners[i] != 0 {
				releasedIDs = append(releasedIDs, winners[i])
			}
		}
		if err := s.releases.Apply(ctx, courseID, releasedIDs); err != nil {
			span.RecordError(err)
			return dto.CourseReleaseReport{}, err
		}
		report.Status = dto.ReleaseStatusReleased
		report.ReleasedChapters = len(releasedIDs)
	} else {
		if err := s.releases.RevokeAllForCourse(ctx, courseID); err != nil {
			span.RecordError(err)
			return dto.CourseReleaseReport{}, err
		}
		report.Status = dto.ReleaseStatusPending
	}

	report.Chapters = chapterRows(chapters, winners, toRelease)

	observability.ReleaseEvaluations().WithLabelValues(policy.Strategy).Inc()
	span.SetAttributes(
		attribute.String("release.status", report.Status),
		attribute.Int("release.ready_chapters", report.ReadyChapters),
	)
	s.logger.Info().
		Uint("course_id", courseID).
		Str("status", report.Status).
		Int("ready_chapters", report.ReadyChapters).
		Int("required_chapters", report.RequiredChapters).
		Msg("release gate evaluated")

	s.cacheReport(ctx, report)
	return report, nil
}

func chapterRows(chapters []models.Chapter, winners []uint, released map[uint]bool) []dto.ChapterReleaseInfo {
	rows := make([]dto.ChapterReleaseInfo, 0, len(chapters))
	for i, chapter := range chapters {
		row := dto.ChapterReleaseInfo{
			ChapterID: chapter.ID,
			Number:    chapter.Number,
			Name:      chapter.Name,
			Status:    dto.ChapterReleaseStatusNoWinner,
		}
		if winners[i] != 0 {
			winnerID := winners[i]
			row.WinnerSubmissionID = &winnerID
			row.Status = dto.ChapterReleaseStatusLocked
			if released[chapter.ID] {
				row.Status = dto.ChapterReleaseStatusReleased
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// persistedReleases maps chapter id to whether its winning submission is
// currently released, read from storage rather than recomputed.
func (s *releaseService) persistedReleases(ctx context.Context, courseID uint, chapters []models.Chapter, winners []uint) (map[uint]bool, error) {
	ids, err := s.submissions.ListIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	states, err := s.releases.ListBySubmissions(ctx, ids)
	if err != nil {
		return nil, err
	}

	released := make(map[uint]bool, len(chapters))
	for i, chapter := range chapters {
		if winners[i] == 0 {
			continue
		}
		if state, ok := states[winners[i]]; ok && state.Released {
			released[chapter.ID] = true
		}
	}
	return released, nil
}

func (s *releaseService) Report(ctx context.Context, courseID uint) (dto.CourseReleaseReport, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, releaseReportKey(courseID)).Bytes()
		if err == nil {
			var report dto.CourseReleaseReport
			if err := json.Unmarshal(raw, &report); err == nil {
				return report, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("release report cache read failed")
		}
	}
	return s.EvaluateRelease(ctx, courseID)
}

func (s *releaseService) UpdatePolicy(ctx context.Context, courseID uint, payload dto.ReleasePolicyRequest) (models.ReleasePolicy, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ReleasePolicy{}, ErrCourseNotFound
		}
		return models.ReleasePolicy{}, err
	}

	policy, err := s.courses.GetReleasePolicy(ctx, courseID)
	if err != nil {
		return models.ReleasePolicy{}, err
	}
	policy.CourseID = courseID
	policy.ThresholdPercentage = payload.ThresholdPercentage
	policy.AutoReleaseEnabled = payload.AutoReleaseEnabled
	if payload.Strategy != "" {
		policy.Strategy = payload.Strategy
	}

	if err := s.courses.SaveReleasePolicy(ctx, &policy); err != nil {
		return models.ReleasePolicy{}, err
	}
	s.invalidateReport(ctx, courseID)
	return policy, nil
}

func releaseReportKey(courseID uint) string {
	return fmt.Sprintf("adhyayan:release:report:%d", courseID)
}

func (s *releaseService) cacheReport(ctx context.Context, report dto.CourseReleaseReport) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, releaseReportKey(report.CourseID), payload, releaseReportTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("course_id", report.CourseID).Msg("release report cache write failed")
	}
}

func (s *releaseService) invalidateReport(ctx context.Context, courseID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, releaseReportKey(courseID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("release report cache invalidation failed")
	}
}
