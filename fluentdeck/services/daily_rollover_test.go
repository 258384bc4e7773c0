package services

import (
	"context"
	"testing"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rolloverFixture(t *testing.T) (*DailyRollover, *fakeStatsRepo, *fakeMissionRepo) {
	t.Helper()

	stats := newFakeStatsRepo()
	require.NoError(t, stats.Create(context.Background(), &models.UserStats{UserID: "u1", CurrentLevel: 1}))

	missions := newFakeMissionRepo(
		&models.Mission{ID: "learn-5-words", MetricKind: models.MetricCorrectAnswers, TargetValue: 5, RewardXP: 30},
		&models.Mission{ID: "earn-100-xp", MetricKind: models.MetricXPEarned, TargetValue: 100, RewardXP: 50},
	)

	rollover := NewDailyRollover(stats, missions)
	rollover.now = timeAt(2026, time.March, 10, 9)
	rollover.pick = func(n int) int { return 0 }
	return rollover, stats, missions
}

func TestDailyRollover_FirstTouchAssignsMission(t *testing.T) {
	rollover, stats, missions := rolloverFixture(t)
	ctx := context.Background()

	rolled, err := rollover.Ensure(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, rolled)

	open, err := missions.ListOpenAssignments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, open, 1)

	row, err := stats.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, row.LastDailyReset)
}

func TestDailyRollover_IdempotentWithinDay(t *testing.T) {
	rollover, _, missions := rolloverFixture(t)
	ctx := context.Background()

	rolled, err := rollover.Ensure(ctx, "u1")
	require.NoError(t, err)
	require.True(t, rolled)

	first, err := missions.ListOpenAssignments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Later the same day: nothing changes.
	rollover.now = timeAt(2026, time.March, 10, 23)
	rolled, err = rollover.Ensure(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, rolled)

	again, err := missions.ListOpenAssignments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, first[0].MissionID, again[0].MissionID)
}

func TestDailyRollover_NewDayReplacesIncompleteMission(t *testing.T) {
	rollover, stats, missions := rolloverFixture(t)
	ctx := context.Background()

	_, err := rollover.Ensure(ctx, "u1")
	require.NoError(t, err)

	// Put some progress on the daily counters.
	_, err = stats.ApplySessionDelta(ctx, "u1", models.SessionDelta{XPGained: 40, CardsViewed: 4})
	require.NoError(t, err)

	// Next day: the unfinished assignment is replaced and counters reset.
	rollover.now = timeAt(2026, time.March, 11, 8)
	rollover.pick = func(n int) int { return 1 }
	rolled, err := rollover.Ensure(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, rolled)

	open, err := missions.ListOpenAssignments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "earn-100-xp", open[0].MissionID, "the held mission was deleted, a fresh one assigned")

	row, err := stats.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, row.WordsViewedToday)
	assert.Equal(t, int64(40), row.TotalXP, "lifetime counters survive the reset")
}

func TestDailyRollover_CompletedMissionSurvivesRollover(t *testing.T) {
	rollover, _, missions := rolloverFixture(t)
	ctx := context.Background()

	_, err := rollover.Ensure(ctx, "u1")
	require.NoError(t, err)

	_, err = missions.IncrementProgress(ctx, "u1", "learn-5-words", 5, 5)
	require.NoError(t, err)
	done, err := missions.CompleteIfNotCompleted(ctx, "u1", "learn-5-words", rollover.now())
	require.NoError(t, err)
	require.True(t, done)

	rollover.now = timeAt(2026, time.March, 11, 8)
	rollover.pick = func(n int) int { return 1 }
	_, err = rollover.Ensure(ctx, "u1")
	require.NoError(t, err)

	// The completed assignment keeps its record alongside the new day's
	// mission.
	all, err := missions.ListAssignedSince(ctx, "u1", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, a := range all {
		if a.MissionID == "learn-5-words" {
			assert.True(t, a.IsCompleted)
		}
	}
}

func TestDailyRollover_RepeatsMissionsAfterCatalogExhausted(t *testing.T) {
	rollover, _, missions := rolloverFixture(t)
	ctx := context.Background()

	// Complete every catalog mission over two days.
	days := []struct {
		day       int
		pick      int
		missionID string
	}{
		{10, 0, "learn-5-words"},
		{11, 1, "earn-100-xp"},
	}
	for _, step := range days {
		day, missionID := step.day, step.missionID
		rollover.now = timeAt(2026, time.March, day, 9)
		pick := step.pick
		rollover.pick = func(n int) int { return pick }
		_, err := rollover.Ensure(ctx, "u1")
		require.NoError(t, err)

		assignment, err := missions.GetAssignment(ctx, "u1", missionID)
		require.NoError(t, err)
		_, err = missions.IncrementProgress(ctx, "u1", missionID, assignment.Mission.TargetValue, assignment.Mission.TargetValue)
		require.NoError(t, err)
		done, err := missions.CompleteIfNotCompleted(ctx, "u1", missionID, rollover.now())
		require.NoError(t, err)
		require.True(t, done)
	}

	// Day three: the catalog is exhausted but the user still gets a
	// mission, recycled into a fresh open assignment.
	rollover.now = timeAt(2026, time.March, 12, 9)
	rollover.pick = func(n int) int { return 0 }
	rolled, err := rollover.Ensure(ctx, "u1")
	require.NoError(t, err)
	require.True(t, rolled)

	open, err := missions.ListOpenAssignments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "learn-5-words", open[0].MissionID)
	assert.Zero(t, open[0].Progress)
	assert.False(t, open[0].IsCompleted)
	assert.Nil(t, open[0].CompletedAt)
}
