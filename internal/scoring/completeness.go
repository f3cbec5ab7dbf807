package scoring

import (
	"context"
	"math"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/pkg/ai"
)

var sectionCuePatterns = map[string]*regexp.Regexp{
	"has_intro":    regexp.MustCompile(`(?i)\b(introduction|overview|objective|aim)\b`),
	"has_core":     regexp.MustCompile(`(?i)\b(concept|theory|definition|explain|method|procedure)\b`),
	"has_examples": regexp.MustCompile(`(?i)\b(example|illustration|case study|scenario)\b`),
	"has_summary":  regexp.MustCompile(`(?i)\b(summary|conclusion|recap|key takeaways)\b`),
	"has_practice": regexp.MustCompile(`(?i)\b(exercise|question|quiz|activity|practice)\b`),
}

// CompletenessAgent scores topic coverage, depth and learning flow.
type CompletenessAgent struct {
	judge  ai.Judge
	logger zerolog.Logger
}

// NewCompletenessAgent constructs the completeness agent.
func NewCompletenessAgent(judge ai.Judge, logger zerolog.Logger) *CompletenessAgent {
	return &CompletenessAgent{judge: judge, logger: logger.With().Str("agent", "completeness").Logger()}
}

func (a *CompletenessAgent) Dimension() Dimension { return DimensionCompleteness }

// Score blends length, structure and topic-coverage heuristics with the AI
// completeness judgment.
func (a *CompletenessAgent) Score(ctx context.Context, payload Payload, level Level) (float64, Diagnostics, error) {
	text := payload.Text()
	if text == "" {
		return 0, nil, ErrEmptyContent
	}

	diag := Diagnostics{}
	local := a.heuristic(text, payload.ChapterContext, level, diag)

	result := judgeOrNeutral(ctx, a.judge, ai.JudgmentRequest{
		Dimension:          string(DimensionCompleteness),
		ContentText:        text,
		ChapterName:        payload.ChapterContext.Name,
		ChapterDescription: payload.ChapterContext.Description,
		EducationLevel:     string(level),
		Rules: []string{
			"Completeness means: covers the main ideas implied by the chapter title/description, has enough depth for the target level, and has a usable learning flow (intro -> core -> examples -> summary/practice).",
			"Technical terms are allowed.",
		},
		SubScoreKeys: []string{"topic_coverage", "depth", "learning_flow"},
	}, diag, a.logger)

	diag["local_score"] = local
	diag["ai_main"] = result.MainScore
	diag["ai_sub_scores"] = result.SubScores

	return blendScores(local, result, BlendFor(DimensionCompleteness, level)), diag, nil
}

// heuristic estimates completeness as coverage + depth + learning flow:
// content length against the level target (0-4), presence of learning-flow
// sections (0-3), and rough coverage of the chapter's topic terms (0-3).
func (a *CompletenessAgent) heuristic(text string, chapter ChapterContext, level Level, diag Diagnostics) float64 {
	target, ok := completenessTargetWords[level]
	if !ok {
		target = completenessTargetWords[LevelDefault]
	}

	words := countWords(text)
	lengthRatio := math.Min(1, float64(words)/math.Max(float64(target), 1))
	lengthScore := 4 * lengthRatio

	cueCount := 0
	cues := map[string]bool{}
	for name, pattern := range sectionCuePatterns {
		hit := pattern.MatchString(text)
		cues[name] = hit
		if hit {
			cueCount++
		}
	}
	structureScore := math.Min(3, float64(cueCount)/5*3)

	terms := extractTopicTerms(chapter.Name, chapter.Description, 30)
	coverage := termCoverageRatio(text, terms)
	topicScore := math.Min(3, coverage*3)

	diag["word_count"] = words
	diag["target_word_count"] = target
	diag["length_ratio"] = round2(lengthRatio)
	diag["section_cues"] = cues
	diag["topic_coverage_ratio"] = round2(coverage)

	return round2(math.Min(10, lengthScore+structureScore+topicScore))
}
