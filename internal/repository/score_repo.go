package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/scoring"
)

// ScoreRepository defines data operations for score records.
type ScoreRepository interface {
	GetBySubmission(ctx context.Context, submissionID uint) (models.ScoreRecord, error)
	ListByChapter(ctx context.Context, chapterID uint) ([]models.ScoreRecord, error)
	// WriteDimension upserts the score record and overwrites the named
	// dimension field. Each agent owns exactly one field, so the write is
	// idempotent per dimension.
	WriteDimension(ctx context.Context, submissionID uint, dim scoring.Dimension, value float64) error
	// WinnerSubmissionID returns the current winner for a chapter, zero when none.
	WinnerSubmissionID(ctx context.Context, chapterID uint) (uint, error)
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository instantiates the repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.ScoreRecord, error) {
	var record models.ScoreRecord
	if err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&record).Error; err != nil {
		return models.ScoreRecord{}, err
	}
	return record, nil
}

func (r *scoreRepository) ListByChapter(ctx context.Context, chapterID uint) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	err := r.db.WithContext(ctx).
		Preload("Submission").
		Joins("JOIN submissions ON submissions.id = score_records.submission_id").
		Where("submissions.chapter_id = ?", chapterID).
		Order("score_records.submission_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func columnFor(dim scoring.Dimension) (string, error) {
	switch dim {
	case scoring.DimensionClarity:
		return "clarity", nil
	case scoring.DimensionCoherence:
		return "coherence", nil
	case scoring.DimensionCompleteness:
		return "completeness", nil
	case scoring.DimensionAccuracy:
		return "accuracy", nil
	case scoring.DimensionEngagement:
		return "engagement", nil
	}
	return "", fmt.Errorf("unknown score dimension %q", dim)
}

func (r *scoreRepository) WriteDimension(ctx context.Context, submissionID uint, dim scoring.Dimension, value float64) error {
	column, err := columnFor(dim)
	if err != nil {
		return err
	}

	record := models.ScoreRecord{SubmissionID: submissionID}
	switch dim {
	case scoring.DimensionClarity:
		record.Clarity = &value
	case scoring.DimensionCoherence:
		record.Coherence = &value
	case scoring.DimensionCompleteness:
		record.Completeness = &value
	case scoring.DimensionAccuracy:
		record.Accuracy = &value
	case scoring.DimensionEngagement:
		record.Engagement = &value
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{column: value}),
		}).
		Create(&record).Error
}

func (r *scoreRepository) WinnerSubmissionID(ctx context.Context, chapterID uint) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ScoreRecord{}).
		Joins("JOIN submissions ON submissions.id = score_records.submission_id").
		Where("submissions.chapter_id = ?", chapterID).
		Where("score_records.is_winner = ?", true).
		Limit(1).
		Pluck("score_records.submission_id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}
