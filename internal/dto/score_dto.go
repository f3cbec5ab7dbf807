package dto

import (
	"time"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// ScoreResponse exposes the five quality dimensions of one submission.
// Dimensions remain null until the corresponding agent has written them.
type ScoreResponse struct {
	SubmissionID  uint      `json:"submission_id"`
	ChapterID     uint      `json:"chapter_id"`
	ContributorID uint      `json:"contributor_id"`
	Clarity       *float64  `json:"clarity"`
	Coherence     *float64  `json:"coherence"`
	Completeness  *float64  `json:"completeness"`
	Accuracy      *float64  `json:"accuracy"`
	Engagement    *float64  `json:"engagement"`
	IsWinner      bool      `json:"is_winner"`
	Evaluated     bool      `json:"evaluated"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewScoreResponse maps a score record plus its submission to the response shape.
func NewScoreResponse(record models.ScoreRecord, submission models.Submission) ScoreResponse {
	return ScoreResponse{
		SubmissionID:  record.SubmissionID,
		ChapterID:     submission.ChapterID,
		ContributorID: submission.ContributorID,
		Clarity:       record.Clarity,
		Coherence:     record.Coherence,
		Completeness:  record.Completeness,
		Accuracy:      record.Accuracy,
		Engagement:    record.Engagement,
		IsWinner:      record.IsWinner,
		Evaluated:     submission.Evaluated,
		UpdatedAt:     record.UpdatedAt,
	}
}

// ChapterScoreboardResponse lists all scored submissions of one chapter.
type ChapterScoreboardResponse struct {
	ChapterID uint            `json:"chapter_id"`
	Scores    []ScoreResponse `json:"scores"`
}

// EvaluateSubmissionRequest triggers the scoring pipeline for one submission.
type EvaluateSubmissionRequest struct {
	// Wait blocks until extraction readiness instead of failing fast.
	Wait bool `json:"wait"`
}
