package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// ChapterRepository defines data operations for chapters and their policies.
type ChapterRepository interface {
	GetByID(ctx context.Context, id uint) (models.Chapter, error)
	GetPolicy(ctx context.Context, chapterID uint) (*models.ChapterPolicy, error)
	SavePolicy(ctx context.Context, policy *models.ChapterPolicy) error
	// ListDuePolicies returns policies whose current deadline has passed,
	// oldest deadline first.
	ListDuePolicies(ctx context.Context, now time.Time) ([]models.ChapterPolicy, error)
	// ExtendDeadline moves the current deadline forward and records the
	// extension. The deadline never moves backwards.
	ExtendDeadline(ctx context.Context, chapterID uint, newDeadline time.Time, requestedBy *uint, reason string) error
}

type chapterRepository struct {
	db *gorm.DB
}

// NewChapterRepository instantiates the repository.
func NewChapterRepository(db *gorm.DB) ChapterRepository {
	return &chapterRepository{db: db}
}

func (r *chapterRepository) GetByID(ctx context.Context, id uint) (models.Chapter, error) {
	var chapter models.Chapter
	if err := r.db.WithContext(ctx).First(&chapter, id).Error; err != nil {
		return models.Chapter{}, err
	}
	return chapter, nil
}

// GetPolicy returns nil without error when the chapter has no policy; a
// policy-less chapter never gates decisions.
func (r *chapterRepository) GetPolicy(ctx context.Context, chapterID uint) (*models.ChapterPolicy, error) {
	var policy models.ChapterPolicy
	err := r.db.WithContext(ctx).Where("chapter_id = ?", chapterID).First(&policy).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *chapterRepository) SavePolicy(ctx context.Context, policy *models.ChapterPolicy) error {
	return r.db.WithContext(ctx).Save(policy).Error
}

func (r *chapterRepository) ListDuePolicies(ctx context.Context, now time.Time) ([]models.ChapterPolicy, error) {
	var policies []models.ChapterPolicy
	if err := r.db.WithContext(ctx).
		Where("current_deadline IS NOT NULL").
		Where("current_deadline < ?", now).
		Order("current_deadline ASC").
		Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func (r *chapterRepository) ExtendDeadline(ctx context.Context, chapterID uint, newDeadline time.Time, requestedBy *uint, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var policy models.ChapterPolicy
		if err := tx.Where("chapter_id = ?", chapterID).First(&policy).Error; err != nil {
			return err
		}

		if policy.CurrentDeadline == nil {
			return fmt.Errorf("chapter %d has no deadline to extend", chapterID)
		}
		if !newDeadline.After(*policy.CurrentDeadline) {
			return fmt.Errorf("new deadline must be after the current one")
		}
		if policy.MaxExtensions > 0 && policy.ExtensionsUsed >= policy.MaxExtensions {
			return fmt.Errorf("chapter %d has no extensions left", chapterID)
		}
		if policy.MaxDaysPerExtension > 0 {
			limit := policy.CurrentDeadline.Add(time.Duration(policy.MaxDaysPerExtension) * 24 * time.Hour)
			if newDeadline.After(limit) {
				return fmt.Errorf("extension exceeds %d days", policy.MaxDaysPerExtension)
			}
		}

		extension := models.DeadlineExtension{
			ChapterPolicyID:  policy.ID,
			RequestedByID:    requestedBy,
			PreviousDeadline: *policy.CurrentDeadline,
			NewDeadline:      newDeadline,
			Reason:           reason,
		}
		if err := tx.Create(&extension).Error; err != nil {
			return err
		}

		policy.CurrentDeadline = &newDeadline
		policy.ExtensionsUsed++
		return tx.Save(&policy).Error
	})
}
