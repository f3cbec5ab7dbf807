package ai

import "context"

// JudgmentRequest asks the external judgment model to rate one quality
// dimension of a piece of educational content.
type JudgmentRequest struct {
	Dimension          string
	ContentText        string
	ChapterName        string
	ChapterDescription string
	EducationLevel     string
	// Rules are dimension-specific instructions inserted into the prompt.
	Rules []string
	// SubScoreKeys name the 2-4 sub-scores (0-5 each) expected back.
	SubScoreKeys []string
}

// JudgmentResult is the structured judgment returned by the model.
// MainScore is 1-10; SubScores are 0-5 each.
type JudgmentResult struct {
	MainScore float64            `json:"main_score"`
	SubScores map[string]float64 `json:"sub_scores"`
	Raw       string             `json:"-"`
}

// Judge describes a model capable of rating content quality dimensions.
type Judge interface {
	Judge(ctx context.Context, req JudgmentRequest) (JudgmentResult, error)
}

// NeutralJudgment returns the fixed fallback used when the judgment service
// fails or returns unparseable output: main 5, every sub-score 2.
func NeutralJudgment(subScoreKeys []string) JudgmentResult {
	subs := make(map[string]float64, len(subScoreKeys))
	for _, k := range subScoreKeys {
		subs[k] = 2
	}
	return JudgmentResult{MainScore: 5, SubScores: subs}
}
