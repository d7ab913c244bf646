package charms

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	require.Equal(t, 1, LevelFor(0))
	require.Equal(t, 1, LevelFor(999))
	require.Equal(t, 2, LevelFor(1000))
	require.Equal(t, 3, LevelFor(2500))
	require.Equal(t, 1, LevelFor(-50))
}

func TestProgressForHalfwayBalance(t *testing.T) {
	progress := ProgressFor(2500)

	require.Equal(t, 3, progress.Level)
	require.Equal(t, 500, progress.XP)
	require.InDelta(t, 50.0, progress.Percent, 0.001)
	require.Equal(t, 500, progress.ToNext)
	require.Equal(t, 4, progress.NextLevel)
}

func TestProgressForFreshLevel(t *testing.T) {
	progress := ProgressFor(3000)

	require.Equal(t, 4, progress.Level)
	require.Equal(t, 0, progress.XP)
	require.InDelta(t, 0.0, progress.Percent, 0.001)
	require.Equal(t, 1000, progress.ToNext)
}
