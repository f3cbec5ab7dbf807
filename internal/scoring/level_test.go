package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeKnownAndUnknownLevels(t *testing.T) {
	require.Equal(t, LevelPrimary, Normalize("primary"))
	require.Equal(t, LevelPhD, Normalize("phd"))
	require.Equal(t, LevelDefault, Normalize("kindergarten"))
	require.Equal(t, LevelDefault, Normalize(""))
}

func TestBlendForAlwaysSumsToOne(t *testing.T) {
	levels := []Level{
		LevelPreschool, LevelPrimary, LevelMiddle, LevelSecondary,
		LevelHSC, LevelUndergrad, LevelPostgrad, LevelPhD, LevelDefault,
	}

	for _, dim := range Dimensions {
		for _, level := range levels {
			blend := BlendFor(dim, level)
			require.InDelta(t, 1.0, blend.Local+blend.AI, 1e-9,
				"dimension %s level %s", dim, level)
		}
	}
}

func TestBlendForFallsBackToDefaultRow(t *testing.T) {
	// Clarity only carries a default row, every level resolves to it.
	require.Equal(t, BlendFor(DimensionClarity, LevelDefault), BlendFor(DimensionClarity, LevelPhD))

	// Completeness leans further on the judgment signal for advanced levels.
	require.Less(t,
		BlendFor(DimensionCompleteness, LevelPhD).Local,
		BlendFor(DimensionCompleteness, LevelPrimary).Local)
}

func TestDimensionValid(t *testing.T) {
	for _, dim := range Dimensions {
		require.True(t, dim.Valid())
	}
	require.False(t, Dimension("novelty").Valid())
}
