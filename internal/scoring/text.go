package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	wordRe     = regexp.MustCompile(`\b\w+\b`)
	numberRe   = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	sentenceRe = regexp.MustCompile(`[.!?]`)
	termRe     = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_+\-]{2,}`)
	splitRe    = regexp.MustCompile("[\n\r\t•\\-–—:;,.()\\[\\]{}<>/\\\\|]+")
	spaceRe    = regexp.MustCompile(`\s+`)

	acronymRe   = regexp.MustCompile(`\b(CNN|ANN|RNN|LSTM|GRU|DNN)\b`)
	datasetRe   = regexp.MustCompile(`(?i)\b(MNIST|CIFAR-?10|GTSRB|ImageNet)\b`)
	libraryRe   = regexp.MustCompile(`(?i)\b(TensorFlow|Keras|PyTorch|scikit-?learn|NumPy|Pandas)\b`)
	netModelRe  = regexp.MustCompile(`\b[A-Za-z]+NetV?\d+\b`)
	resnetRe    = regexp.MustCompile(`\bResNet\d+\b`)
	bertRe      = regexp.MustCompile(`(?i)\bBERT[-_ ]?(base|large)?\b`)
	dimensionRe = regexp.MustCompile(`\b\d+\s*[x×]\s*\d+\b`)
	bulletRe    = regexp.MustCompile(`[•◦▪▫→⇒▶]`)
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {}, "from": {},
	"into": {}, "onto": {}, "over": {}, "under": {}, "about": {}, "above": {},
	"below": {}, "between": {}, "within": {}, "without": {}, "will": {}, "can": {},
	"may": {}, "might": {}, "should": {}, "must": {}, "also": {}, "been": {},
	"being": {}, "these": {}, "those": {}, "their": {}, "them": {}, "they": {},
	"your": {}, "were": {},
}

func countWords(text string) int {
	return len(wordRe.FindAllString(text, -1))
}

func countNumbers(text string) int {
	return len(numberRe.FindAllString(text, -1))
}

func avgSentenceLength(text string) float64 {
	parts := sentenceRe.Split(text, -1)
	sentences := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		return 0
	}
	return float64(len(strings.Fields(text))) / float64(sentences)
}

var passivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwas\b \w+ed`),
	regexp.MustCompile(`\bwere\b \w+ed`),
	regexp.MustCompile(`\bbeen\b \w+ed`),
	regexp.MustCompile(`\bis\b \w+ed`),
	regexp.MustCompile(`\bare\b \w+ed`),
}

func countPassiveVoice(text string) int {
	lower := strings.ToLower(text)
	total := 0
	for _, p := range passivePatterns {
		total += len(p.FindAllString(lower, -1))
	}
	return total
}

// normalizeForReadability keeps readability scoring fair for technical
// documents: dataset names, acronyms, model names and NxM dimensions are
// replaced with plain words so syllable-based metrics do not over-penalise
// them. Only the readability computation sees the normalised text.
func normalizeForReadability(text string) string {
	if text == "" {
		return ""
	}
	t := text
	t = acronymRe.ReplaceAllString(t, "model")
	t = datasetRe.ReplaceAllString(t, "dataset")
	t = libraryRe.ReplaceAllString(t, "library")
	t = netModelRe.ReplaceAllString(t, "model")
	t = resnetRe.ReplaceAllString(t, "model")
	t = bertRe.ReplaceAllString(t, "model")
	t = dimensionRe.ReplaceAllString(t, "dimension")
	t = bulletRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}

func countSyllables(word string) int {
	w := strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range w {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

// fleschReadingEase computes the standard Flesch score. Higher is simpler;
// technical prose commonly lands in the 20-50 range.
func fleschReadingEase(text string) float64 {
	words := wordRe.FindAllString(text, -1)
	if len(words) == 0 {
		return 0
	}
	parts := sentenceRe.Split(text, -1)
	sentences := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	return 206.835 - 1.015*(float64(len(words))/float64(sentences)) - 84.6*(float64(syllables)/float64(len(words)))
}

// extractTopicTerms pulls a frequency-ranked set of topic terms out of the
// chapter name and description for rough coverage checks.
func extractTopicTerms(chapterName, chapterDescription string, maxTerms int) []string {
	text := strings.ToLower(strings.TrimSpace(chapterName + "\n" + chapterDescription))
	if text == "" {
		return nil
	}

	freq := map[string]int{}
	for _, part := range splitRe.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, w := range termRe.FindAllString(part, -1) {
			wl := strings.ToLower(w)
			if _, stop := stopwords[wl]; stop {
				continue
			}
			if len(wl) < 4 {
				continue
			}
			freq[wl]++
		}
	}

	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	return terms
}

func termCoverageRatio(text string, terms []string) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hit := 0
	for _, t := range terms {
		if t != "" && strings.Contains(lower, t) {
			hit++
		}
	}
	return float64(hit) / float64(len(terms))
}

// paragraphSimilarity returns the mean similarity ratio between adjacent
// paragraphs longer than 50 characters. Zero when fewer than two qualify.
func paragraphSimilarity(text string) float64 {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n") {
		p = strings.TrimSpace(p)
		if len(p) > 50 {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) < 2 {
		return 0
	}

	sum := 0.0
	for i := 0; i < len(paragraphs)-1; i++ {
		m := difflib.NewMatcher(strings.Fields(paragraphs[i]), strings.Fields(paragraphs[i+1]))
		sum += m.Ratio()
	}
	return sum / float64(len(paragraphs)-1)
}
