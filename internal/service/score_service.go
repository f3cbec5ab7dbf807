package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/dto"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/repository"
)

// ErrScoreNotFound indicates no score record exists for the submission yet.
var ErrScoreNotFound = errors.New("score record not found")

// ScoreService serves read access to scoring results.
type ScoreService interface {
	ChapterScoreboard(ctx context.Context, chapterID uint) (dto.ChapterScoreboardResponse, error)
	SubmissionScore(ctx context.Context, submissionID uint) (dto.ScoreResponse, error)
}

type scoreService struct {
	chapters    repository.ChapterRepository
	submissions repository.SubmissionRepository
	scores      repository.ScoreRepository
	logger      zerolog.Logger
}

// NewScoreService constructs the score read service.
func NewScoreService(chapters repository.ChapterRepository, submissions repository.SubmissionRepository, scores repository.ScoreRepository, logger zerolog.Logger) ScoreService {
	return &scoreService{
		chapters:    chapters,
		submissions: submissions,
		scores:      scores,
		logger:      logger.With().Str("component", "score_service").Logger(),
	}
}

func (s *scoreService) ChapterScoreboard(ctx context.Context, chapterID uint) (dto.ChapterScoreboardResponse, error) {
	if _, err := s.chapters.GetByID(ctx, chapterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChapterScoreboardResponse{}, ErrChapterNotFound
		}
		return dto.ChapterScoreboardResponse{}, err
	}

	records, err := s.scores.ListByChapter(ctx, chapterID)
	if err != nil {
		return dto.ChapterScoreboardResponse{}, err
	}

	response := dto.ChapterScoreboardResponse{
		ChapterID: chapterID,
		Scores:    make([]dto.ScoreResponse, 0, len(records)),
	}
	for _, record := range records {
		response.Scores = append(response.Scores, dto.NewScoreResponse(record, record.Submission))
	}
	return response, nil
}

func (s *scoreService) SubmissionScore(ctx context.Context, submissionID uint) (dto.ScoreResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreResponse{}, ErrSubmissionNotFound
		}
		return dto.ScoreResponse{}, err
	}

	record, err := s.scores.GetBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreResponse{}, ErrScoreNotFound
		}
		return dto.ScoreResponse{}, err
	}

	return dto.NewScoreResponse(record, submission), nil
}
