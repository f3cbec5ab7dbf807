package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// ErrExtractionMissing indicates no extraction payload exists for a submission.
var ErrExtractionMissing = errors.New("extraction payload not found")

// ExtractionRepository reads and writes the content payloads produced by the
// external extraction collaborator.
type ExtractionRepository interface {
	GetBySubmission(ctx context.Context, submissionID uint) (models.ExtractionRecord, error)
	IsReady(ctx context.Context, submissionID uint) (bool, error)
	// Upsert stores the payload written by the extraction collaborator and
	// flips the readiness flag.
	Upsert(ctx context.Context, submissionID uint, payload datatypes.JSON, ready bool) error
}

type extractionRepository struct {
	db *gorm.DB
}

// NewExtractionRepository instantiates the repository.
func NewExtractionRepository(db *gorm.DB) ExtractionRepository {
	return &extractionRepository{db: db}
}

func (r *extractionRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.ExtractionRecord, error) {
	var record models.ExtractionRecord
	err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ExtractionRecord{}, ErrExtractionMissing
	}
	if err != nil {
		return models.ExtractionRecord{}, err
	}
	return record, nil
}

func (r *extractionRepository) IsReady(ctx context.Context, submissionID uint) (bool, error) {
	var record models.ExtractionRecord
	err := r.db.WithContext(ctx).
		Select("ready").
		Where("submission_id = ?", submissionID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return record.Ready, nil
}

func (r *extractionRepository) Upsert(ctx context.Context, submissionID uint, payload datatypes.JSON, ready bool) error {
	record := models.ExtractionRecord{
		SubmissionID: submissionID,
		Payload:      payload,
		Ready:        ready,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "ready", "updated_at"}),
		}).
		Create(&record).Error
}
