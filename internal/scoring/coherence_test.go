package scoring

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoherenceDisjointParagraphs(t *testing.T) {
	agent := NewCoherenceAgent(nil, testLogger())

	disjoint := textPayload(strings.Join([]string{
		"volcanoes erupt molten lava which cools into layers of igneous rock over geological time spans",
		"quarterly revenue projections depend heavily on seasonal retail demand patterns across urban markets",
	}, "\n"))

	score, diag, err := agent.Score(context.Background(), disjoint, LevelDefault)
	require.NoError(t, err)

	sim := diag["paragraph_similarity"].(float64)
	require.Less(t, sim, 0.2)
	// local 4 blended 0.4/0.6 with the neutral judgment signal 4.4
	require.InDelta(t, 4.24, score, 1e-9)
}

func TestCoherenceRepetitiveParagraphsPenalized(t *testing.T) {
	agent := NewCoherenceAgent(nil, testLogger())

	paragraph := "the water cycle moves moisture between oceans atmosphere and land through evaporation and rain"
	repetitive := textPayload(paragraph + "\n" + paragraph)

	score, diag, err := agent.Score(context.Background(), repetitive, LevelDefault)
	require.NoError(t, err)

	require.InDelta(t, 1.0, diag["paragraph_similarity"].(float64), 1e-9)
	// local 5 blended 0.4/0.6 with the neutral judgment signal 4.4
	require.InDelta(t, 4.64, score, 1e-9)
}

func TestCoherenceSingleParagraphGetsBaseline(t *testing.T) {
	agent := NewCoherenceAgent(nil, testLogger())

	single := textPayload("one short paragraph that still runs past the length cutoff for similarity checks")
	score, diag, err := agent.Score(context.Background(), single, LevelDefault)
	require.NoError(t, err)

	require.InDelta(t, 0.0, diag["paragraph_similarity"].(float64), 1e-9)
	require.InDelta(t, 4.24, score, 1e-9)
}
