package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// DecisionOutcome is the full set of mutations one decision run commits.
// Everything inside it is applied in a single transaction so concurrent runs
// for the same chapter converge instead of interleaving partial state.
type DecisionOutcome struct {
	ChapterID uint
	// Run is the audit row to append; nil on dry runs.
	Run *models.DecisionRun
	// WinnerSubmissionID is the submission to mark as chapter winner; zero
	// when the run selected nobody.
	WinnerSubmissionID uint
	// AutoRelease additionally flips ReleaseState for the chapter: winner
	// on, everyone else off.
	AutoRelease bool
}

// DecisionRepository persists decision runs and their side effects.
type DecisionRepository interface {
	// Persist applies the outcome atomically: winner flags are recomputed
	// for the whole chapter, the previous latest audit row is superseded,
	// and the new row inserted. On PostgreSQL the transaction takes a
	// per-chapter advisory lock to serialise concurrent runs.
	Persist(ctx context.Context, outcome DecisionOutcome) error
	LatestByChapter(ctx context.Context, chapterID uint) (*models.DecisionRun, error)
	ListByChapter(ctx context.Context, chapterID uint, limit int) ([]models.DecisionRun, error)
}

type decisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository instantiates the repository.
func NewDecisionRepository(db *gorm.DB) DecisionRepository {
	return &decisionRepository{db: db}
}

func (r *decisionRepository) Persist(ctx context.Context, outcome DecisionOutcome) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(outcome.ChapterID)).Error; err != nil {
				return err
			}
		}

		chapterScores := tx.Model(&models.ScoreRecord{}).
			Where("submission_id IN (?)", tx.Model(&models.Submission{}).
				Select("id").Where("chapter_id = ?", outcome.ChapterID))

		if outcome.WinnerSubmissionID != 0 {
			if err := chapterScores.Update("is_winner", false).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.ScoreRecord{}).
				Where("submission_id = ?", outcome.WinnerSubmissionID).
				Update("is_winner", true).Error; err != nil {
				return err
			}
		}

		if outcome.Run != nil {
			if err := tx.Model(&models.DecisionRun{}).
				Where("chapter_id = ?", outcome.ChapterID).
				Where("is_latest = ?", true).
				Update("is_latest", false).Error; err != nil {
				return err
			}
			outcome.Run.IsLatest = true
			if err := tx.Create(outcome.Run).Error; err != nil {
				return err
			}
		}

		if outcome.AutoRelease && outcome.WinnerSubmissionID != 0 {
			if err := tx.Model(&models.ReleaseState{}).
				Where("submission_id IN (?)", tx.Model(&models.Submission{}).
					Select("id").Where("chapter_id = ?", outcome.ChapterID)).
				Update("released", false).Error; err != nil {
				return err
			}
			state := models.ReleaseState{SubmissionID: outcome.WinnerSubmissionID, Released: true}
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

func (r *decisionRepository) LatestByChapter(ctx context.Context, chapterID uint) (*models.DecisionRun, error) {
	var run models.DecisionRun
	err := r.db.WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Where("is_latest = ?", true).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *decisionRepository) ListByChapter(ctx context.Context, chapterID uint, limit int) ([]models.DecisionRun, error) {
	query := r.db.WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.DecisionRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
