package scoring

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccuracyPlaceholdersPenalized(t *testing.T) {
	agent := NewAccuracyAgent(nil, testLogger())

	base := strings.Repeat("Neural networks learn by adjusting layer weights during training with activation functions. ", 30)
	clean := textPayload(base)
	drafty := textPayload(base + " Lorem ipsum TBD insert figure here. ???")

	cleanScore, cleanDiag, err := agent.Score(context.Background(), clean, LevelUndergrad)
	require.NoError(t, err)
	draftScore, draftDiag, err := agent.Score(context.Background(), drafty, LevelUndergrad)
	require.NoError(t, err)

	require.Equal(t, 0, cleanDiag["placeholder_hits"].(int))
	require.Greater(t, draftDiag["placeholder_hits"].(int), 0)
	require.Greater(t, cleanScore, draftScore)
}

func TestAccuracyAIDisclaimersPenalized(t *testing.T) {
	agent := NewAccuracyAgent(nil, testLogger())

	base := strings.Repeat("Neural networks learn by adjusting layer weights during training with activation functions. ", 30)
	pasted := textPayload(base + " As an AI language model I cannot verify the latest results.")

	_, diag, err := agent.Score(context.Background(), pasted, LevelUndergrad)
	require.NoError(t, err)
	require.Greater(t, diag["ai_disclaimer_hits"].(int), 0)
}

func TestAccuracyReferencesRecognized(t *testing.T) {
	agent := NewAccuracyAgent(nil, testLogger())

	base := strings.Repeat("Neural networks learn by adjusting layer weights during training with activation functions. ", 30)
	withRefs := textPayload(base + " References: https://example.org/neural-networks")
	withoutRefs := textPayload(base)

	refScore, refDiag, err := agent.Score(context.Background(), withRefs, LevelUndergrad)
	require.NoError(t, err)
	plainScore, plainDiag, err := agent.Score(context.Background(), withoutRefs, LevelUndergrad)
	require.NoError(t, err)

	require.True(t, refDiag["has_references"].(bool))
	require.False(t, plainDiag["has_references"].(bool))
	require.GreaterOrEqual(t, refScore, plainScore)
}

func TestAccuracyShortContentPenalized(t *testing.T) {
	agent := NewAccuracyAgent(nil, testLogger())

	long := textPayload(strings.Repeat("Neural networks learn by adjusting layer weights during training with activation functions. ", 40))
	short := textPayload("Neural networks adjust weights.")

	longScore, _, err := agent.Score(context.Background(), long, LevelUndergrad)
	require.NoError(t, err)
	shortScore, _, err := agent.Score(context.Background(), short, LevelUndergrad)
	require.NoError(t, err)

	require.Greater(t, longScore, shortScore)
}
