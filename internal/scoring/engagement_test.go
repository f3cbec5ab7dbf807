package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngagementFlatTextGetsNeutralFloor(t *testing.T) {
	agent := NewEngagementAgent(nil, testLogger())

	flat := textPayload("The topic is defined. The topic has properties. The properties are listed below.")
	score, diag, err := agent.Score(context.Background(), flat, LevelUndergrad)
	require.NoError(t, err)

	require.Equal(t, 0, diag["example_cues"].(int))
	require.Equal(t, 0, diag["scenario_cues"].(int))
	require.Equal(t, 0, diag["exercise_cues"].(int))
	// local 0 blended 0.35/0.65 with the neutral judgment signal 4.4
	require.InDelta(t, 2.86, score, 1e-9)
}

func TestEngagementCuesRaiseScore(t *testing.T) {
	agent := NewEngagementAgent(nil, testLogger())

	rich := textPayload(`For example, consider a bakery tracking sales.
Imagine you run the shop for a week. What if demand doubles?
Exercise: compute the weekly totals. Try it with your own numbers.
Another case study covers a real-world logistics scenario.`)

	flat := textPayload("The topic is defined. The topic has properties. The properties are listed below.")

	richScore, richDiag, err := agent.Score(context.Background(), rich, LevelUndergrad)
	require.NoError(t, err)
	flatScore, _, err := agent.Score(context.Background(), flat, LevelUndergrad)
	require.NoError(t, err)

	require.Greater(t, richDiag["example_cues"].(int), 0)
	require.Greater(t, richDiag["scenario_cues"].(int), 0)
	require.Greater(t, richDiag["exercise_cues"].(int), 0)
	require.Greater(t, richScore, flatScore)
}

func TestEngagementLocalScoreCapped(t *testing.T) {
	agent := NewEngagementAgent(nil, testLogger())

	text := ""
	for i := 0; i < 20; i++ {
		text += "For example, imagine this scenario. Exercise: practice now. "
	}

	_, diag, err := agent.Score(context.Background(), textPayload(text), LevelUndergrad)
	require.NoError(t, err)
	require.Equal(t, 10.0, diag["local_score"].(float64))
}
