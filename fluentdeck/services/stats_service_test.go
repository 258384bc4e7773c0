package services

import (
	"context"
	"testing"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/leveling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsFixture(t *testing.T) (*StatsService, *fakeStatsRepo, *fakeUserRepo) {
	t.Helper()
	ctx := context.Background()

	statsRepo := newFakeStatsRepo()
	require.NoError(t, statsRepo.Create(ctx, &models.UserStats{UserID: "u1", CurrentLevel: 1}))

	userRepo := newFakeUserRepo()
	require.NoError(t, userRepo.Create(ctx, &models.User{ID: "u1", CurrentLanguageLevel: models.LanguageLevelA0}))

	svc := NewStatsService(statsRepo, userRepo, leveling.NewCalculator(nil))
	return svc, statsRepo, userRepo
}

func TestStatsService_LevelReconciledOnXPGain(t *testing.T) {
	svc, _, _ := statsFixture(t)
	ctx := context.Background()

	stats, err := svc.ApplySessionDelta(ctx, "u1", models.SessionDelta{XPGained: 299})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentLevel)

	stats, err = svc.ApplySessionDelta(ctx, "u1", models.SessionDelta{XPGained: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentLevel)
	assert.Equal(t, int64(300), stats.TotalXP)

	stats, err = svc.GrantXP(ctx, "u1", 500)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CurrentLevel)
}

func TestStatsService_TierMilestoneAdvancesLanguageLevel(t *testing.T) {
	svc, _, userRepo := statsFixture(t)
	ctx := context.Background()

	calc := leveling.NewCalculator(nil)

	// Push to level 5 (A1 milestone).
	_, err := svc.GrantXP(ctx, "u1", calc.XPForLevel(5))
	require.NoError(t, err)

	user, err := userRepo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.LanguageLevelA1, user.CurrentLanguageLevel)

	// Push to level 10 (A2 milestone).
	more := calc.XPForLevel(10) - calc.XPForLevel(5)
	_, err = svc.GrantXP(ctx, "u1", more)
	require.NoError(t, err)

	user, err = userRepo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.LanguageLevelA2, user.CurrentLanguageLevel)
}

func TestStatsService_TierNeverRegresses(t *testing.T) {
	svc, _, userRepo := statsFixture(t)
	ctx := context.Background()

	// The user already carries a higher tier than the milestone grants.
	require.NoError(t, userRepo.UpdateLanguageLevel(ctx, "u1", models.LanguageLevelB2))

	_, err := svc.GrantXP(ctx, "u1", leveling.NewCalculator(nil).XPForLevel(5))
	require.NoError(t, err)

	user, err := userRepo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.LanguageLevelB2, user.CurrentLanguageLevel)
}

func TestStatsService_GrantZeroXPIsNoop(t *testing.T) {
	svc, statsRepo, _ := statsFixture(t)
	ctx := context.Background()

	stats, err := svc.GrantXP(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalXP)

	row, err := statsRepo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), row.TotalXP)
}

func TestStatsService_MissingStatsRow(t *testing.T) {
	svc, _, _ := statsFixture(t)

	_, err := svc.ApplySessionDelta(context.Background(), "ghost", models.SessionDelta{XPGained: 10})
	assert.ErrorIs(t, err, models.ErrStatsNotFound)
}
