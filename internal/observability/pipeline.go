package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineOnce            sync.Once
	evaluationRunsTotal     *prometheus.CounterVec
	agentScoresTotal        *prometheus.CounterVec
	extractionWaitSeconds   prometheus.Histogram
	decisionRunsTotal       *prometheus.CounterVec
	releaseEvaluationsTotal *prometheus.CounterVec
)

// RegisterPipelineMetrics initialises the collectors for the scoring,
// decision and release stages.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		evaluationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adhyayan_evaluation_runs_total",
			Help: "Total number of submission scoring runs by outcome.",
		}, []string{"outcome"})

		agentScoresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adhyayan_agent_scores_total",
			Help: "Total number of per-dimension agent scores by outcome.",
		}, []string{"dimension", "outcome"})

		extractionWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "adhyayan_extraction_wait_seconds",
			Help:    "Time spent waiting for extraction payloads to become ready.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 120, 300},
		})

		decisionRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adhyayan_decision_runs_total",
			Help: "Total number of decision engine runs by resulting status.",
		}, []string{"status"})

		releaseEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adhyayan_release_evaluations_total",
			Help: "Total number of release gate evaluations by strategy.",
		}, []string{"strategy"})

		prometheus.MustRegister(
			evaluationRunsTotal,
			agentScoresTotal,
			extractionWaitSeconds,
			decisionRunsTotal,
			releaseEvaluationsTotal,
		)
	})
}

// EvaluationRuns exposes the scoring run counter.
func EvaluationRuns() *prometheus.CounterVec {
	RegisterPipelineMetrics()
	return evaluationRunsTotal
}

// AgentScores exposes the per-dimension agent counter.
func AgentScores() *prometheus.CounterVec {
	RegisterPipelineMetrics()
	return agentScoresTotal
}

// ExtractionWait exposes the readiness wait histogram.
func ExtractionWait() prometheus.Histogram {
	RegisterPipelineMetrics()
	return extractionWaitSeconds
}

// DecisionRuns exposes the decision run counter.
func DecisionRuns() *prometheus.CounterVec {
	RegisterPipelineMetrics()
	return decisionRunsTotal
}

// ReleaseEvaluations exposes the release gate counter.
func ReleaseEvaluations() *prometheus.CounterVec {
	RegisterPipelineMetrics()
	return releaseEvaluationsTotal
}
