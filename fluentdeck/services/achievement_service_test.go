package services

import (
	"context"
	"testing"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func achievementFixture(t *testing.T) (*AchievementService, *fakeStatsRepo, *fakeProgressRepo, *fakeAchievementRepo) {
	t.Helper()

	statsRepo := newFakeStatsRepo()
	require.NoError(t, statsRepo.Create(context.Background(), &models.UserStats{UserID: "u1", CurrentLevel: 1}))

	progressRepo := newFakeProgressRepo()
	achievementRepo := newFakeAchievementRepo(
		&models.Achievement{ID: "first-card", Name: "Первая карточка", MetricKind: models.MetricWordsAdded, Threshold: int64ptr(1)},
		&models.Achievement{ID: "dictionary-builder", Name: "Создатель словаря", MetricKind: models.MetricWordsAdded, Threshold: int64ptr(10)},
		&models.Achievement{ID: "first-session", Name: "Первая сессия", MetricKind: models.MetricSessionsCompleted, Threshold: int64ptr(1)},
		&models.Achievement{ID: "badge-only", Name: "Значок", MetricKind: models.MetricWordsAdded},
	)

	svc := NewAchievementService(achievementRepo, statsRepo, progressRepo)
	svc.now = timeAt(2026, time.June, 5, 14)
	return svc, statsRepo, progressRepo, achievementRepo
}

func TestAchievementService_UnlocksAtThreshold(t *testing.T) {
	svc, statsRepo, _, _ := achievementFixture(t)
	ctx := context.Background()

	_, err := statsRepo.ApplyCardCountDelta(ctx, "u1", 1, 0)
	require.NoError(t, err)

	unlocked, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-card", unlocked[0].ID)
}

func TestAchievementService_EvaluationIsIdempotent(t *testing.T) {
	svc, statsRepo, _, _ := achievementFixture(t)
	ctx := context.Background()

	_, err := statsRepo.ApplyCardCountDelta(ctx, "u1", 1, 0)
	require.NoError(t, err)

	first, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, second, "a second evaluation unlocks nothing new")
}

func TestAchievementService_UnlockDetectedDespiteTimestampRounding(t *testing.T) {
	svc, statsRepo, _, achievementRepo := achievementFixture(t)
	ctx := context.Background()

	// A clock with sub-microsecond precision; the stored timestamp will
	// come back rounded, so unlock detection cannot compare timestamps.
	svc.now = func() time.Time {
		return time.Date(2026, time.June, 5, 14, 0, 0, 123456789, time.UTC)
	}

	_, err := statsRepo.ApplyCardCountDelta(ctx, "u1", 1, 0)
	require.NoError(t, err)

	unlocked, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-card", unlocked[0].ID)

	rows, err := achievementRepo.ListUserAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].UnlockedAt)

	unlocked, err = svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestAchievementService_UnlockStoresThresholdProgress(t *testing.T) {
	svc, statsRepo, _, achievementRepo := achievementFixture(t)
	ctx := context.Background()

	// Nine cards overshoot the one-card threshold; the unlocked row
	// still records the threshold, not the live metric.
	_, err := statsRepo.ApplyCardCountDelta(ctx, "u1", 9, 0)
	require.NoError(t, err)

	unlocked, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	require.Equal(t, "first-card", unlocked[0].ID)

	rows, err := achievementRepo.ListUserAchievements(ctx, "u1")
	require.NoError(t, err)
	for _, row := range rows {
		if row.AchievementID == "first-card" {
			assert.Equal(t, int64(1), row.Progress)
		}
	}
}

func TestAchievementService_DictionaryBuilderScenario(t *testing.T) {
	svc, statsRepo, _, _ := achievementFixture(t)
	ctx := context.Background()

	// Nine cards: progress is refreshed but the threshold is not met.
	_, err := statsRepo.ApplyCardCountDelta(ctx, "u1", 9, 0)
	require.NoError(t, err)

	unlocked, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-card", unlocked[0].ID)

	statuses, err := svc.ListWithStatus(ctx, "u1")
	require.NoError(t, err)
	for _, status := range statuses {
		if status.Achievement.ID == "dictionary-builder" {
			assert.False(t, status.Unlocked)
			assert.Equal(t, int64(9), status.Progress)
		}
	}

	// The tenth card crosses the threshold.
	_, err = statsRepo.ApplyCardCountDelta(ctx, "u1", 1, 0)
	require.NoError(t, err)

	unlocked, err = svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "dictionary-builder", unlocked[0].ID)
}

func TestAchievementService_SessionCountMetric(t *testing.T) {
	svc, _, progressRepo, _ := achievementFixture(t)
	ctx := context.Background()

	_, err := progressRepo.RecordCorrect(ctx, "c1", "u1", models.StudyModeQuiz, time.Now())
	require.NoError(t, err)

	unlocked, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-session", unlocked[0].ID)
}

func TestAchievementService_BadgeOnlyIsSkipped(t *testing.T) {
	svc, statsRepo, _, achievementRepo := achievementFixture(t)
	ctx := context.Background()

	_, err := statsRepo.ApplyCardCountDelta(ctx, "u1", 100, 0)
	require.NoError(t, err)

	unlocked, err := svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)
	for _, a := range unlocked {
		assert.NotEqual(t, "badge-only", a.ID)
	}

	rows, err := achievementRepo.ListUserAchievements(ctx, "u1")
	require.NoError(t, err)
	for _, row := range rows {
		assert.NotEqual(t, "badge-only", row.AchievementID)
	}
}

func TestAchievementService_SecretStaysHiddenUntilUnlocked(t *testing.T) {
	svc, statsRepo, _, achievementRepo := achievementFixture(t)
	ctx := context.Background()

	achievementRepo.catalog = append(achievementRepo.catalog, &models.Achievement{
		ID: "secret", Name: "Тайна", MetricKind: models.MetricWordsAdded,
		Threshold: int64ptr(3), IsSecret: true,
	})

	statuses, err := svc.ListWithStatus(ctx, "u1")
	require.NoError(t, err)
	for _, status := range statuses {
		assert.NotEqual(t, "secret", status.Achievement.ID)
	}

	_, err = statsRepo.ApplyCardCountDelta(ctx, "u1", 3, 0)
	require.NoError(t, err)
	_, err = svc.EvaluateAndUnlock(ctx, "u1")
	require.NoError(t, err)

	statuses, err = svc.ListWithStatus(ctx, "u1")
	require.NoError(t, err)
	found := false
	for _, status := range statuses {
		if status.Achievement.ID == "secret" {
			found = true
			assert.True(t, status.Unlocked)
		}
	}
	assert.True(t, found)
}
