package scoring

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/pkg/ai"
)

// CoherenceAgent scores how well the content hangs together from paragraph to
// paragraph.
type CoherenceAgent struct {
	judge  ai.Judge
	logger zerolog.Logger
}

// NewCoherenceAgent constructs the coherence agent.
func NewCoherenceAgent(judge ai.Judge, logger zerolog.Logger) *CoherenceAgent {
	return &CoherenceAgent{judge: judge, logger: logger.With().Str("agent", "coherence").Logger()}
}

func (a *CoherenceAgent) Dimension() Dimension { return DimensionCoherence }

// Score blends adjacent-paragraph similarity with the AI coherence judgment.
func (a *CoherenceAgent) Score(ctx context.Context, payload Payload, level Level) (float64, Diagnostics, error) {
	text := payload.Text()
	if text == "" {
		return 0, nil, ErrEmptyContent
	}

	diag := Diagnostics{}

	sim := paragraphSimilarity(text)

	// Ideal similarity is connected but not repetitive.
	var local float64
	switch {
	case sim < 0.2:
		local = 4
	case sim < 0.4:
		local = 6
	case sim < 0.7:
		local = 8
	default:
		local = 5
	}

	result := judgeOrNeutral(ctx, a.judge, ai.JudgmentRequest{
		Dimension:          string(DimensionCoherence),
		ContentText:        text,
		ChapterName:        payload.ChapterContext.Name,
		ChapterDescription: payload.ChapterContext.Description,
		EducationLevel:     string(level),
		Rules: []string{
			"Judge logical flow, transitions between sections, and continuity of the topic.",
		},
		SubScoreKeys: []string{"logical_flow", "section_connectivity", "topic_continuity"},
	}, diag, a.logger)

	diag["paragraph_similarity"] = round2(sim)
	diag["local_score"] = local
	diag["ai_main"] = result.MainScore
	diag["ai_sub_scores"] = result.SubScores

	return blendScores(local, result, BlendFor(DimensionCoherence, level)), diag, nil
}
