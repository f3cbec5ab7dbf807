package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// DecisionStatusOK means a winner was selected.
	DecisionStatusOK = "ok"
	// DecisionStatusNotDue means the chapter deadline has not passed.
	DecisionStatusNotDue = "not_due"
	// DecisionStatusNotReady means the minimum contribution count is unmet.
	DecisionStatusNotReady = "not_ready"
	// DecisionStatusNoCandidates means no submission survived scoring.
	DecisionStatusNoCandidates = "no_candidates"
)

const (
	// StrategyWeightedAverage weights each dimension by the configured weight map.
	StrategyWeightedAverage = "weighted_average"
	// StrategySimpleAverage averages dimensions with equal weight.
	StrategySimpleAverage = "simple_average"
)

// DecisionRun is an append-only audit record of one decision engine
// invocation for one chapter. Rows are never mutated; a new run unsets the
// previous IsLatest row inside the same transaction before inserting itself.
type DecisionRun struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	ChapterID            uint           `gorm:"not null;index" json:"chapter_id"`
	SelectedSubmissionID *uint          `gorm:"index" json:"selected_submission_id"`
	RunID                string         `gorm:"size:64;uniqueIndex" json:"run_id"`
	Status               string         `gorm:"size:32;not null;default:ok" json:"status"`
	Strategy             string         `gorm:"size:64;not null;default:weighted_average" json:"strategy"`
	Weights              datatypes.JSON `json:"weights"`
	Thresholds           datatypes.JSON `json:"thresholds"`
	CompositeScore       *float64       `json:"composite_score"`
	Ranking              datatypes.JSON `json:"ranking"`
	Explanation          string         `gorm:"type:text" json:"explanation"`
	IsLatest             bool           `gorm:"not null;default:true;index" json:"is_latest"`
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`
}

// Selected reports whether the run picked a winner.
func (r DecisionRun) Selected() bool {
	return r.Status == DecisionStatusOK && r.SelectedSubmissionID != nil
}
