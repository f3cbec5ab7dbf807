package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/pkg/ai"
)

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(lorem ipsum|tbd|to be (added|filled)|coming soon|placeholder)\b`),
	regexp.MustCompile(`(?i)\b(insert|add) (figure|diagram|image|reference)\b`),
	regexp.MustCompile(`\?\?\?+`),
}

var aiDisclaimerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as an ai language model`),
	regexp.MustCompile(`(?i)i (can't|cannot) (provide|verify|access)`),
	regexp.MustCompile(`(?i)i do not have (access|browsing)`),
	regexp.MustCompile(`(?i)i am unable to`),
}

var referencesRe = regexp.MustCompile(`(?i)\b(reference|references|source|sources|bibliography)\b`)

// AccuracyAgent scores internal consistency and topical alignment. It does
// NOT perform external fact-checking.
type AccuracyAgent struct {
	judge  ai.Judge
	logger zerolog.Logger
}

// NewAccuracyAgent constructs the accuracy agent.
func NewAccuracyAgent(judge ai.Judge, logger zerolog.Logger) *AccuracyAgent {
	return &AccuracyAgent{judge: judge, logger: logger.With().Str("agent", "accuracy").Logger()}
}

func (a *AccuracyAgent) Dimension() Dimension { return DimensionAccuracy }

// Score blends the consistency/reliability heuristic with the AI judgment of
// internal consistency and alignment.
func (a *AccuracyAgent) Score(ctx context.Context, payload Payload, level Level) (float64, Diagnostics, error) {
	text := payload.Text()
	if text == "" {
		return 0, nil, ErrEmptyContent
	}

	diag := Diagnostics{}
	local := a.heuristic(text, payload.ChapterContext, level, diag)

	result := judgeOrNeutral(ctx, a.judge, ai.JudgmentRequest{
		Dimension:          string(DimensionAccuracy),
		ContentText:        text,
		ChapterName:        payload.ChapterContext.Name,
		ChapterDescription: payload.ChapterContext.Description,
		EducationLevel:     string(level),
		Rules: []string{
			"The content should be internally consistent (no contradictions), align with the chapter topic/description, and avoid obviously wrong or hallucinated claims.",
			"Do NOT browse the web. If a specific fact cannot be verified, judge whether the explanation is plausible and consistent.",
			"Technical terms are allowed (do NOT penalize technical vocabulary).",
		},
		SubScoreKeys: []string{"internal_consistency", "alignment_with_chapter", "factual_soundness"},
	}, diag, a.logger)

	diag["local_score"] = local
	diag["ai_main"] = result.MainScore
	diag["ai_sub_scores"] = result.SubScores

	return blendScores(local, result, BlendFor(DimensionAccuracy, level)), diag, nil
}

// heuristic is a consistency and reliability signal, not fact-checking. It
// starts at a neutral high score and subtracts for under-length content,
// placeholder markers, pasted AI disclaimers, poor topic alignment and
// unreferenced numeric density.
func (a *AccuracyAgent) heuristic(text string, chapter ChapterContext, level Level, diag Diagnostics) float64 {
	bands, ok := accuracyLevels[level]
	if !ok {
		bands = accuracyLevels[LevelDefault]
	}

	words := countWords(text)
	numbers := countNumbers(text)
	terms := extractTopicTerms(chapter.Name, chapter.Description, 25)
	coverage := termCoverageRatio(text, terms)

	score := 10.0

	if words < bands.MinWords {
		ratio := float64(words) / math.Max(float64(bands.MinWords), 1)
		score -= 3 * (1 - math.Min(1, ratio))
	}

	placeholderHits := 0
	for _, p := range placeholderPatterns {
		placeholderHits += len(p.FindAllString(text, -1))
	}
	if placeholderHits > 0 {
		score -= math.Min(3.5, 1.5+float64(placeholderHits)*0.5)
	}

	aiHits := 0
	for _, p := range aiDisclaimerPatterns {
		aiHits += len(p.FindAllString(text, -1))
	}
	if aiHits > 0 {
		score -= math.Min(3, 1+float64(aiHits)*0.75)
	}

	if len(terms) > 0 && coverage < bands.CoverageFloor {
		score -= math.Min(2, (bands.CoverageFloor-coverage)*6)
	}

	hasRefs := referencesRe.MatchString(text) ||
		strings.Contains(text, "http://") || strings.Contains(text, "https://")

	if words > 0 {
		numericRatio := float64(numbers) / float64(words)
		if numericRatio > 0.04 && !hasRefs {
			score -= 0.75
		}
	}

	if hasRefs {
		score += 0.25
	}

	diag["word_count"] = words
	diag["number_count"] = numbers
	diag["topic_coverage_ratio"] = round2(coverage)
	diag["placeholder_hits"] = placeholderHits
	diag["ai_disclaimer_hits"] = aiHits
	diag["has_references"] = hasRefs

	return round2(math.Max(0, math.Min(10, score)))
}
