package ai

import (
	"encoding/json"
	"regexp"
)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSONObject pulls the first JSON object out of a model response.
// Models sometimes wrap the object in prose or code fences; an exact parse is
// attempted first, then the first {...} block.
func extractJSONObject(text string) map[string]json.Number {
	if text == "" {
		return nil
	}

	var data map[string]json.Number
	dec := func(s string) map[string]json.Number {
		var out map[string]json.Number
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil
		}
		return out
	}

	if data = dec(text); data != nil {
		return data
	}

	if match := jsonObjectRe.FindString(text); match != "" {
		return dec(match)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// parseJudgment maps a raw response onto a JudgmentResult. Missing or
// malformed fields fall back to the neutral values rather than failing.
func parseJudgment(raw string, req JudgmentRequest) (JudgmentResult, bool) {
	data := extractJSONObject(raw)
	if data == nil {
		return JudgmentResult{}, false
	}

	result := NeutralJudgment(req.SubScoreKeys)
	result.Raw = raw

	if n, ok := data[req.Dimension]; ok {
		if v, err := n.Float64(); err == nil {
			result.MainScore = clamp(v, 1, 10)
		}
	}
	for _, key := range req.SubScoreKeys {
		if n, ok := data[key]; ok {
			if v, err := n.Float64(); err == nil {
				result.SubScores[key] = clamp(v, 0, 5)
			}
		}
	}
	return result, true
}
