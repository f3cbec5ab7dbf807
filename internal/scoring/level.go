package scoring

// Level is the education level tag attached to a course. It selects the
// heuristic thresholds and the local/AI blend weights each agent uses.
type Level string

const (
	LevelPreschool Level = "preschool"
	LevelPrimary   Level = "primary"
	LevelMiddle    Level = "middle"
	LevelSecondary Level = "secondary"
	LevelHSC       Level = "hsc"
	LevelUndergrad Level = "undergrad"
	LevelPostgrad  Level = "postgrad"
	LevelPhD       Level = "phd"

	// LevelDefault is the fallback for unknown tags.
	LevelDefault Level = "default"
)

// Normalize maps an arbitrary tag onto a known level, falling back to default.
func Normalize(tag string) Level {
	l := Level(tag)
	switch l {
	case LevelPreschool, LevelPrimary, LevelMiddle, LevelSecondary, LevelHSC,
		LevelUndergrad, LevelPostgrad, LevelPhD:
		return l
	}
	return LevelDefault
}

// clarityBands holds readability and sentence-length cutoffs per level.
// Younger levels expect simpler language; technical levels tolerate density.
type clarityBands struct {
	FREGood  float64
	FREOk    float64
	SentGood float64
	SentOk   float64
}

var clarityLevels = map[Level]clarityBands{
	LevelPreschool: {FREGood: 85, FREOk: 70, SentGood: 8, SentOk: 12},
	LevelPrimary:   {FREGood: 75, FREOk: 60, SentGood: 10, SentOk: 14},
	LevelMiddle:    {FREGood: 65, FREOk: 50, SentGood: 12, SentOk: 16},
	LevelSecondary: {FREGood: 55, FREOk: 40, SentGood: 14, SentOk: 18},
	LevelHSC:       {FREGood: 50, FREOk: 35, SentGood: 16, SentOk: 20},
	LevelUndergrad: {FREGood: 45, FREOk: 25, SentGood: 18, SentOk: 24},
	LevelPostgrad:  {FREGood: 40, FREOk: 20, SentGood: 20, SentOk: 28},
	LevelPhD:       {FREGood: 35, FREOk: 15, SentGood: 22, SentOk: 30},
	LevelDefault:   {FREGood: 45, FREOk: 25, SentGood: 18, SentOk: 24},
}

// completenessTargetWords is the expected content length per level.
var completenessTargetWords = map[Level]int{
	LevelPreschool: 250,
	LevelPrimary:   400,
	LevelMiddle:    650,
	LevelSecondary: 900,
	LevelHSC:       1100,
	LevelUndergrad: 1400,
	LevelPostgrad:  1700,
	LevelPhD:       2000,
	LevelDefault:   1400,
}

// accuracyBands holds the minimum substance and topic coverage floors per level.
type accuracyBands struct {
	MinWords      int
	CoverageFloor float64
}

var accuracyLevels = map[Level]accuracyBands{
	LevelPreschool: {MinWords: 200, CoverageFloor: 0.20},
	LevelPrimary:   {MinWords: 300, CoverageFloor: 0.22},
	LevelMiddle:    {MinWords: 450, CoverageFloor: 0.25},
	LevelSecondary: {MinWords: 650, CoverageFloor: 0.25},
	LevelHSC:       {MinWords: 800, CoverageFloor: 0.25},
	LevelUndergrad: {MinWords: 900, CoverageFloor: 0.22},
	LevelPostgrad:  {MinWords: 1100, CoverageFloor: 0.20},
	LevelPhD:       {MinWords: 1300, CoverageFloor: 0.18},
	LevelDefault:   {MinWords: 900, CoverageFloor: 0.22},
}

// Blend is the pair of weights combining the local heuristic signal with the
// AI judgment signal. Weights per level are data, not code branches.
type Blend struct {
	Local float64
	AI    float64
}

// BlendTable maps levels to blend weights for one dimension.
type BlendTable map[Level]Blend

// For resolves the blend for a level, falling back to the default row.
func (t BlendTable) For(level Level) Blend {
	if b, ok := t[level]; ok {
		return b
	}
	return t[LevelDefault]
}

var clarityBlend = BlendTable{
	LevelDefault: {Local: 0.30, AI: 0.70},
}

var coherenceBlend = BlendTable{
	LevelDefault: {Local: 0.40, AI: 0.60},
}

var completenessBlend = BlendTable{
	LevelPreschool: {Local: 0.35, AI: 0.65},
	LevelPrimary:   {Local: 0.35, AI: 0.65},
	LevelMiddle:    {Local: 0.32, AI: 0.68},
	LevelSecondary: {Local: 0.30, AI: 0.70},
	LevelHSC:       {Local: 0.30, AI: 0.70},
	LevelUndergrad: {Local: 0.30, AI: 0.70},
	LevelPostgrad:  {Local: 0.28, AI: 0.72},
	LevelPhD:       {Local: 0.25, AI: 0.75},
	LevelDefault:   {Local: 0.30, AI: 0.70},
}

var accuracyBlend = BlendTable{
	LevelPreschool: {Local: 0.30, AI: 0.70},
	LevelPrimary:   {Local: 0.30, AI: 0.70},
	LevelMiddle:    {Local: 0.28, AI: 0.72},
	LevelSecondary: {Local: 0.25, AI: 0.75},
	LevelHSC:       {Local: 0.25, AI: 0.75},
	LevelUndergrad: {Local: 0.25, AI: 0.75},
	LevelPostgrad:  {Local: 0.22, AI: 0.78},
	LevelPhD:       {Local: 0.20, AI: 0.80},
	LevelDefault:   {Local: 0.25, AI: 0.75},
}

var engagementBlend = BlendTable{
	LevelPreschool: {Local: 0.40, AI: 0.60},
	LevelPrimary:   {Local: 0.40, AI: 0.60},
	LevelDefault:   {Local: 0.35, AI: 0.65},
}

// BlendFor resolves the blend weights for a dimension and level.
func BlendFor(dim Dimension, level Level) Blend {
	switch dim {
	case DimensionClarity:
		return clarityBlend.For(level)
	case DimensionCoherence:
		return coherenceBlend.For(level)
	case DimensionCompleteness:
		return completenessBlend.For(level)
	case DimensionAccuracy:
		return accuracyBlend.For(level)
	case DimensionEngagement:
		return engagementBlend.For(level)
	}
	return Blend{Local: 0.3, AI: 0.7}
}
