package dto

import (
	"encoding/json"
	"time"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// DecideRequest tunes one decision engine invocation.
type DecideRequest struct {
	// Force runs the engine even when the chapter deadline has not passed.
	Force bool `json:"force"`
	// DryRun computes the outcome without persisting anything.
	DryRun bool `json:"dry_run"`
	// IncludeUnevaluated admits partially scored submissions as candidates.
	IncludeUnevaluated bool `json:"include_unevaluated"`
	// IgnoreMinContributions skips the chapter policy minimum.
	IgnoreMinContributions bool `json:"ignore_min_contributions"`
	// AutoRelease overrides the configured auto-release behaviour when set.
	AutoRelease *bool  `json:"auto_release"`
	Strategy    string `json:"strategy" validate:"omitempty,oneof=weighted_average simple_average"`
	TopK        int    `json:"top_k" validate:"omitempty,min=1,max=100"`
}

// RunDueRequest bounds a batch sweep over chapters with lapsed deadlines.
type RunDueRequest struct {
	MaxChapters int `json:"max_chapters" validate:"omitempty,min=1,max=500"`
}

// RankedCandidate is one submission's position in a decision ranking, as
// serialised into the run's audit trail.
type RankedCandidate struct {
	SubmissionID   uint                `json:"submission_id"`
	CompositeScore float64             `json:"composite_score"`
	ScoredCount    int                 `json:"scored_count"`
	Scores         map[string]*float64 `json:"scores"`
}

// DecisionRunResponse exposes one audit row of the decision engine.
type DecisionRunResponse struct {
	ID                   uint            `json:"id"`
	ChapterID            uint            `json:"chapter_id"`
	RunID                string          `json:"run_id"`
	Status               string          `json:"status"`
	Strategy             string          `json:"strategy"`
	SelectedSubmissionID *uint           `json:"selected_submission_id"`
	CompositeScore       *float64        `json:"composite_score"`
	Weights              json.RawMessage `json:"weights,omitempty"`
	Thresholds           json.RawMessage `json:"thresholds,omitempty"`
	Ranking              json.RawMessage `json:"ranking,omitempty"`
	Explanation          string          `json:"explanation"`
	IsLatest             bool            `json:"is_latest"`
	CreatedAt            time.Time       `json:"created_at"`
}

// NewDecisionRunResponse maps a decision run model to the response shape.
func NewDecisionRunResponse(run models.DecisionRun) DecisionRunResponse {
	return DecisionRunResponse{
		ID:                   run.ID,
		ChapterID:            run.ChapterID,
		RunID:                run.RunID,
		Status:               run.Status,
		Strategy:             run.Strategy,
		SelectedSubmissionID: run.SelectedSubmissionID,
		CompositeScore:       run.CompositeScore,
		Weights:              json.RawMessage(run.Weights),
		Thresholds:           json.RawMessage(run.Thresholds),
		Ranking:              json.RawMessage(run.Ranking),
		Explanation:          run.Explanation,
		IsLatest:             run.IsLatest,
		CreatedAt:            run.CreatedAt,
	}
}

// NewDecisionRunResponseSlice maps a list of runs.
func NewDecisionRunResponseSlice(runs []models.DecisionRun) []DecisionRunResponse {
	responses := make([]DecisionRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, NewDecisionRunResponse(run))
	}
	return responses
}

// RunDueResponse summarises a batch sweep.
type RunDueResponse struct {
	ChaptersExamined int                   `json:"chapters_examined"`
	RunsExecuted     int                   `json:"runs_executed"`
	Results          []DecisionRunResponse `json:"results"`
}
