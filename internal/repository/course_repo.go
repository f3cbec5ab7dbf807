package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// CourseRepository defines data operations for courses and their release policies.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	ListChapters(ctx context.Context, courseID uint) ([]models.Chapter, error)
	GetReleasePolicy(ctx context.Context, courseID uint) (models.ReleasePolicy, error)
	SaveReleasePolicy(ctx context.Context, policy *models.ReleasePolicy) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) ListChapters(ctx context.Context, courseID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("number ASC").
		Find(&chapters).Error; err != nil {
		return nil, err
	}
	return chapters, nil
}

// GetReleasePolicy returns the course policy, falling back to defaults when
// none has been stored.
func (r *courseRepository) GetReleasePolicy(ctx context.Context, courseID uint) (models.ReleasePolicy, error) {
	var policy models.ReleasePolicy
	err := r.db.WithContext(ctx).Where("course_id = ?", courseID).First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReleasePolicy{
			CourseID:            courseID,
			ThresholdPercentage: 80,
			AutoReleaseEnabled:  true,
			Strategy:            models.ReleaseStrategySequential,
		}, nil
	}
	if err != nil {
		return models.ReleasePolicy{}, err
	}
	if policy.Strategy == "" {
		policy.Strategy = models.ReleaseStrategySequential
	}
	return policy, nil
}

func (r *courseRepository) SaveReleasePolicy(ctx context.Context, policy *models.ReleasePolicy) error {
	return r.db.WithContext(ctx).Save(policy).Error
}
