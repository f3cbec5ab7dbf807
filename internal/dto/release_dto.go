package dto

import "time"

// Course-level release gate statuses.
const (
	ReleaseStatusReleased = "released"
	ReleaseStatusPending  = "pending"
	ReleaseStatusDisabled = "disabled"
)

// Per-chapter release statuses.
const (
	ChapterReleaseStatusReleased = "released"
	ChapterReleaseStatusLocked   = "locked"
	ChapterReleaseStatusNoWinner = "no_winner"
)

// ChapterReleaseInfo is one chapter's row in a course release report.
type ChapterReleaseInfo struct {
	ChapterID          uint   `json:"chapter_id"`
	Number             int    `json:"number"`
	Name               string `json:"name"`
	Status             string `json:"status"`
	WinnerSubmissionID *uint  `json:"winner_submission_id"`
}

// CourseReleaseReport is the full release gate verdict for one course.
type CourseReleaseReport struct {
	CourseID            uint                 `json:"course_id"`
	Status              string               `json:"status"`
	Strategy            string               `json:"strategy"`
	AutoReleaseEnabled  bool                 `json:"auto_release_enabled"`
	ThresholdPercentage int                  `json:"threshold_percentage"`
	TotalChapters       int                  `json:"total_chapters"`
	RequiredChapters    int                  `json:"required_chapters"`
	ReadyChapters       int                  `json:"ready_chapters"`
	ReleasedChapters    int                  `json:"released_chapters"`
	ThresholdMet        bool                 `json:"threshold_met"`
	Chapters            []ChapterReleaseInfo `json:"chapters"`
	GeneratedAt         time.Time            `json:"generated_at"`
}

// ReleasePolicyRequest updates the course-level release policy.
type ReleasePolicyRequest struct {
	ThresholdPercentage int    `json:"threshold_percentage" validate:"min=0,max=100"`
	AutoReleaseEnabled  bool   `json:"auto_release_enabled"`
	Strategy            string `json:"strategy" validate:"omitempty,oneof=sequential threshold_only"`
}
