package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// ReleaseRepository manages the published/withheld flag per submission.
type ReleaseRepository interface {
	// Apply reconciles the whole course in one transaction: the given
	// submissions end up released, every other submission of the course
	// ends up withheld.
	Apply(ctx context.Context, courseID uint, releasedSubmissionIDs []uint) error
	ListBySubmissions(ctx context.Context, submissionIDs []uint) (map[uint]models.ReleaseState, error)
	RevokeAllForCourse(ctx context.Context, courseID uint) error
}

type releaseRepository struct {
	db *gorm.DB
}

// NewReleaseRepository instantiates the repository.
func NewReleaseRepository(db *gorm.DB) ReleaseRepository {
	return &releaseRepository{db: db}
}

func (r *releaseRepository) Apply(ctx context.Context, courseID uint, releasedSubmissionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		courseSubmissions := tx.Model(&models.Submission{}).
			Select("submissions.id").
			Joins("JOIN chapters ON chapters.id = submissions.chapter_id").
			Where("chapters.course_id = ?", courseID)

		if err := tx.Model(&models.ReleaseState{}).
			Where("submission_id IN (?)", courseSubmissions).
			Update("released", false).Error; err != nil {
			return err
		}

		for _, id := range releasedSubmissionIDs {
			state := models.ReleaseState{SubmissionID: id, Released: true}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "submission_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"released": true}),
			}).Create(&state).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *releaseRepository) ListBySubmissions(ctx context.Context, submissionIDs []uint) (map[uint]models.ReleaseState, error) {
	result := make(map[uint]models.ReleaseState, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return result, nil
	}

	var states []models.ReleaseState
	err := r.db.WithContext(ctx).
		Where("submission_id IN ?", submissionIDs).
		Find(&states).Error
	if err != nil {
		return nil, err
	}
	for _, s := range states {
		result[s.SubmissionID] = s
	}
	return result, nil
}

func (r *releaseRepository) RevokeAllForCourse(ctx context.Context, courseID uint) error {
	courseSubmissions := r.db.Model(&models.Submission{}).
		Select("submissions.id").
		Joins("JOIN chapters ON chapters.id = submissions.chapter_id").
		Where("chapters.course_id = ?", courseID)

	return r.db.WithContext(ctx).Model(&models.ReleaseState{}).
		Where("submission_id IN (?)", courseSubmissions).
		Update("released", false).Error
}
