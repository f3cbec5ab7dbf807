package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission identifies one contributor's upload for one chapter. It is
// immutable after creation except for the Evaluated flag, which flips true
// once all five score dimensions are populated.
type Submission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ChapterID     uint      `gorm:"not null;index" json:"chapter_id"`
	ContributorID uint      `gorm:"not null;index" json:"contributor_id"`
	Evaluated     bool      `gorm:"not null;default:false;index" json:"evaluated"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	Chapter       Chapter   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ScoreRecord stores the five quality dimensions for one submission. Each
// scoring agent owns exactly one field and overwrites it idempotently.
// At most one record per chapter carries IsWinner.
type ScoreRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"not null;uniqueIndex" json:"submission_id"`
	Clarity      *float64   `json:"clarity"`
	Coherence    *float64   `json:"coherence"`
	Completeness *float64   `json:"completeness"`
	Accuracy     *float64   `json:"accuracy"`
	Engagement   *float64   `json:"engagement"`
	IsWinner     bool       `gorm:"not null;default:false;index" json:"is_winner"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Complete reports whether every dimension has been written.
func (s ScoreRecord) Complete() bool {
	return s.Clarity != nil && s.Coherence != nil && s.Completeness != nil &&
		s.Accuracy != nil && s.Engagement != nil
}

// ExtractionRecord carries the structured content payload produced by the
// external extraction collaborator for one submission. The evaluation
// pipeline only starts once Ready is true.
type ExtractionRecord struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;uniqueIndex" json:"submission_id"`
	Ready        bool           `gorm:"not null;default:false" json:"ready"`
	Payload      datatypes.JSON `json:"payload"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ReleaseState records whether a winning submission is exposed to learners.
// Rows are recomputed wholesale on every release gate run.
type ReleaseState struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmissionID   uint      `gorm:"not null;uniqueIndex" json:"submission_id"`
	Released       bool      `gorm:"not null;default:false" json:"released"`
	ContentLocator string    `gorm:"size:512" json:"content_locator"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
