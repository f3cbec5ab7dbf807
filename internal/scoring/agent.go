package scoring

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/pkg/ai"
)

// Diagnostics carries per-agent intermediate signals for audit and debugging.
type Diagnostics map[string]interface{}

// Agent scores one quality dimension of an extracted submission payload.
// Agents are stateless; the single side effect of a scoring run (the
// ScoreRecord field write) belongs to the orchestrator.
type Agent interface {
	Dimension() Dimension
	Score(ctx context.Context, payload Payload, level Level) (float64, Diagnostics, error)
}

// judgeOrNeutral performs the external judgment call and absorbs any failure
// into the fixed neutral default. Fail-soft is mandatory: a judgment outage
// must never block scoring.
func judgeOrNeutral(ctx context.Context, judge ai.Judge, req ai.JudgmentRequest, diag Diagnostics, logger zerolog.Logger) ai.JudgmentResult {
	if judge == nil {
		diag["ai_fallback"] = true
		return ai.NeutralJudgment(req.SubScoreKeys)
	}

	result, err := judge.Judge(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Str("dimension", req.Dimension).Msg("ai judgment unavailable, using neutral default")
		diag["ai_fallback"] = true
		return ai.NeutralJudgment(req.SubScoreKeys)
	}
	return result
}

// aiInternal folds the main score and the rescaled sub-scores into one 0-10
// signal: 40% main, 60% spread evenly over the sub-scores (each 0-5, x2).
func aiInternal(result ai.JudgmentResult) float64 {
	if len(result.SubScores) == 0 {
		return result.MainScore
	}
	share := 0.6 / float64(len(result.SubScores))
	total := 0.4 * result.MainScore
	for _, v := range result.SubScores {
		total += share * (v * 2)
	}
	return total
}

// blendScores combines the local heuristic with the AI signal using the
// level's weights and clamps into [0,10].
func blendScores(local float64, result ai.JudgmentResult, blend Blend) float64 {
	final := blend.Local*local + blend.AI*aiInternal(result)
	return round2(math.Min(10, math.Max(0, final)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
