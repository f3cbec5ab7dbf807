package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

type recordingDecisionService struct {
	DecisionService
	sweeps []int
	runs   []models.DecisionRun
}

func (r *recordingDecisionService) DecideAllDue(_ context.Context, maxChapters int) ([]models.DecisionRun, error) {
	r.sweeps = append(r.sweeps, maxChapters)
	return r.runs, nil
}

func TestSweepRunOnceWithoutRedis(t *testing.T) {
	decisions := &recordingDecisionService{runs: []models.DecisionRun{{ChapterID: 1}}}
	sweeper := NewSweeper(decisions, nil, SweepConfig{MaxChapters: 50}, testLogger())

	runs, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, []int{50}, decisions.sweeps)
}

func TestSweepThrottleSkipsSecondRun(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	decisions := &recordingDecisionService{}
	sweeper := NewSweeper(decisions, client, SweepConfig{Throttle: time.Minute}, testLogger())

	_, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions.sweeps, 1)

	// The throttle lock is still held, the second run is a no-op.
	runs, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, runs)
	require.Len(t, decisions.sweeps, 1)

	// Once the lock expires the sweep resumes.
	mr.FastForward(2 * time.Minute)
	_, err = sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions.sweeps, 2)
}
