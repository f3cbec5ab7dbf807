package scoring

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/pkg/ai"
)

// ClarityAgent scores how readable and well explained the content is.
type ClarityAgent struct {
	judge  ai.Judge
	logger zerolog.Logger
}

// NewClarityAgent constructs the clarity agent.
func NewClarityAgent(judge ai.Judge, logger zerolog.Logger) *ClarityAgent {
	return &ClarityAgent{judge: judge, logger: logger.With().Str("agent", "clarity").Logger()}
}

func (a *ClarityAgent) Dimension() Dimension { return DimensionClarity }

// Score blends readability heuristics with the AI clarity judgment.
func (a *ClarityAgent) Score(ctx context.Context, payload Payload, level Level) (float64, Diagnostics, error) {
	text := payload.Text()
	if text == "" {
		return 0, nil, ErrEmptyContent
	}

	diag := Diagnostics{}
	local := a.heuristic(text, level, diag)

	result := judgeOrNeutral(ctx, a.judge, ai.JudgmentRequest{
		Dimension:          string(DimensionClarity),
		ContentText:        text,
		ChapterName:        payload.ChapterContext.Name,
		ChapterDescription: payload.ChapterContext.Description,
		EducationLevel:     string(level),
		Rules: []string{
			"Technical terms are allowed (engineering/science content).",
			"Do NOT reduce score just because technical words exist.",
			"Reduce score only if terms are not explained, steps are confusing, or definitions are missing.",
		},
		SubScoreKeys: []string{"definition_quality", "instruction_clarity", "term_explanation"},
	}, diag, a.logger)

	diag["local_score"] = local
	diag["ai_main"] = result.MainScore
	diag["ai_sub_scores"] = result.SubScores

	return blendScores(local, result, BlendFor(DimensionClarity, level)), diag, nil
}

// heuristic scores readability against per-level bands. Dataset names, model
// names and similar technical tokens are normalised first so syllable-heavy
// vocabulary does not drag the score down unfairly.
func (a *ClarityAgent) heuristic(text string, level Level, diag Diagnostics) float64 {
	bands, ok := clarityLevels[level]
	if !ok {
		bands = clarityLevels[LevelDefault]
	}

	normalized := normalizeForReadability(text)
	passive := countPassiveVoice(normalized)
	avgLen := avgSentenceLength(normalized)
	readability := fleschReadingEase(normalized)

	score := 0.0

	switch {
	case readability >= bands.FREGood:
		score += 4
	case readability >= bands.FREOk:
		score += 3
	case readability >= bands.FREOk-15:
		score += 2
	default:
		score += 1
	}

	switch {
	case avgLen <= bands.SentGood:
		score += 4
	case avgLen <= bands.SentOk:
		score += 3
	case avgLen <= bands.SentOk+10:
		score += 2
	default:
		score += 1
	}

	switch {
	case passive <= 5:
		score += 2
	case passive <= 15:
		score += 1
	}

	if score > 10 {
		score = 10
	}

	diag["readability"] = round2(readability)
	diag["avg_sentence_length"] = round2(avgLen)
	diag["passive_voice_count"] = passive

	return score
}
