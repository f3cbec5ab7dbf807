package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	ChapterID     *uint
	ContributorID *uint
	EvaluatedOnly bool
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	SetEvaluated(ctx context.Context, id uint, evaluated bool) error
	CountEvaluated(ctx context.Context, chapterID uint) (int64, error)
	// ListIDsByCourse returns every submission id belonging to the course's
	// chapters; the release gate revokes and grants over this set wholesale.
	ListIDsByCourse(ctx context.Context, courseID uint) ([]uint, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.ChapterID != nil {
		query = query.Where("chapter_id = ?", *filter.ChapterID)
	}
	if filter.ContributorID != nil {
		query = query.Where("contributor_id = ?", *filter.ContributorID)
	}
	if filter.EvaluatedOnly {
		query = query.Where("evaluated = ?", true)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Order("id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) SetEvaluated(ctx context.Context, id uint, evaluated bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("evaluated", evaluated).Error
}

func (r *submissionRepository) CountEvaluated(ctx context.Context, chapterID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("chapter_id = ?", chapterID).
		Where("evaluated = ?", true).
		Count(&count).Error
	return count, err
}

func (r *submissionRepository) ListIDsByCourse(ctx context.Context, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Joins("JOIN chapters ON chapters.id = submissions.chapter_id").
		Where("chapters.course_id = ?", courseID).
		Pluck("submissions.id", &ids).Error
	return ids, err
}
