package scoring

// Dimension is one of the five quality axes a submission is scored on.
// The set is fixed at compile time; the decision engine iterates over
// Dimensions rather than discovering score fields at runtime.
type Dimension string

const (
	DimensionClarity      Dimension = "clarity"
	DimensionCoherence    Dimension = "coherence"
	DimensionCompleteness Dimension = "completeness"
	DimensionAccuracy     Dimension = "accuracy"
	DimensionEngagement   Dimension = "engagement"
)

// Dimensions lists every dimension in a stable order.
var Dimensions = []Dimension{
	DimensionClarity,
	DimensionCoherence,
	DimensionCompleteness,
	DimensionAccuracy,
	DimensionEngagement,
}

// DefaultTieBreakPriority is the order dimensions are consulted to break
// composite-score ties.
var DefaultTieBreakPriority = []Dimension{
	DimensionAccuracy,
	DimensionCompleteness,
	DimensionCoherence,
	DimensionClarity,
	DimensionEngagement,
}

// EvaluationOrder is the fixed sequence the orchestrator runs agents in.
var EvaluationOrder = []Dimension{
	DimensionClarity,
	DimensionEngagement,
	DimensionCoherence,
	DimensionCompleteness,
	DimensionAccuracy,
}

func (d Dimension) String() string { return string(d) }

// Valid reports whether d names one of the five known dimensions.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionClarity, DimensionCoherence, DimensionCompleteness, DimensionAccuracy, DimensionEngagement:
		return true
	}
	return false
}
