package scoring

import (
	"context"
	"math"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/pkg/ai"
)

var (
	exampleCueRe  = regexp.MustCompile(`(?i)\b(for example|for instance|case study|case studies|e\.g\.)\b`)
	scenarioCueRe = regexp.MustCompile(`(?i)\b(scenario|imagine|suppose|what if|real[- ]world|role[- ]play)\b`)
	exerciseCueRe = regexp.MustCompile(`(?i)\b(exercise|quiz|activity|practice|try it|your turn|question \d+)\b`)
)

// EngagementAgent scores how much the content invites the learner to
// participate: examples, exercises and scenarios.
type EngagementAgent struct {
	judge  ai.Judge
	logger zerolog.Logger
}

// NewEngagementAgent constructs the engagement agent.
func NewEngagementAgent(judge ai.Judge, logger zerolog.Logger) *EngagementAgent {
	return &EngagementAgent{judge: judge, logger: logger.With().Str("agent", "engagement").Logger()}
}

func (a *EngagementAgent) Dimension() Dimension { return DimensionEngagement }

// Score blends counted engagement cues with the AI engagement judgment.
func (a *EngagementAgent) Score(ctx context.Context, payload Payload, level Level) (float64, Diagnostics, error) {
	text := payload.Text()
	if text == "" {
		return 0, nil, ErrEmptyContent
	}

	diag := Diagnostics{}

	examples := len(exampleCueRe.FindAllString(text, -1))
	scenarios := len(scenarioCueRe.FindAllString(text, -1))
	exercises := len(exerciseCueRe.FindAllString(text, -1))

	local := math.Min(10, round2(float64(examples)*2+float64(scenarios)*1.5+float64(exercises)*1.5))

	result := judgeOrNeutral(ctx, a.judge, ai.JudgmentRequest{
		Dimension:          string(DimensionEngagement),
		ContentText:        text,
		ChapterName:        payload.ChapterContext.Name,
		ChapterDescription: payload.ChapterContext.Description,
		EducationLevel:     string(level),
		Rules: []string{
			"Judge how much the material invites the learner to participate: worked examples, case studies, exercises, questions, and real-world scenarios.",
		},
		SubScoreKeys: []string{"example_richness", "interactivity", "scenario_use"},
	}, diag, a.logger)

	diag["example_cues"] = examples
	diag["scenario_cues"] = scenarios
	diag["exercise_cues"] = exercises
	diag["local_score"] = local
	diag["ai_main"] = result.MainScore
	diag["ai_sub_scores"] = result.SubScores

	return blendScores(local, result, BlendFor(DimensionEngagement, level)), diag, nil
}
