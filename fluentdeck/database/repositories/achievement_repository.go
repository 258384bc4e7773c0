package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
	"golang.org/x/sync/singleflight"
)

type cachedAchievements struct {
	achievements []*models.Achievement
	loadedAt     time.Time
}

type AchievementRepository interface {
	// ListActive returns the live achievement catalog, cached like the
	// mission catalog.
	ListActive(ctx context.Context) ([]*models.Achievement, error)
	ListUserAchievements(ctx context.Context, userID string) ([]*models.UserAchievement, error)

	// UpsertUnlock records an unlock. unlocked_at is write-once: an
	// already-unlocked row keeps its original timestamp. Reports whether
	// this call performed the unlock.
	UpsertUnlock(ctx context.Context, userID, achievementID string, progress int64, at time.Time) (bool, error)
	// UpsertProgress refreshes the display progress without unlocking.
	UpsertProgress(ctx context.Context, userID, achievementID string, progress int64) error
}

type achievementRepository struct {
	db    *bun.DB
	cache *lru.Cache
	group singleflight.Group
}

func NewAchievementRepository(db *bun.DB) AchievementRepository {
	cache, _ := lru.New(catalogCacheSize)
	return &achievementRepository{db: db, cache: cache}
}

func (r *achievementRepository) ListActive(ctx context.Context) ([]*models.Achievement, error) {
	const key = "achievements:active"

	if v, ok := r.cache.Get(key); ok {
		entry := v.(cachedAchievements)
		if time.Since(entry.loadedAt) < catalogCacheTTL {
			return entry.achievements, nil
		}
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
		defer cancel()

		var achievements []*models.Achievement
		err := r.db.NewSelect().
			Model(&achievements).
			Where("deleted_at IS NULL").
			Order("category ASC", "id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list achievements: %w", err)
		}
		r.cache.Add(key, cachedAchievements{achievements: achievements, loadedAt: time.Now()})
		return achievements, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Achievement), nil
}

func (r *achievementRepository) ListUserAchievements(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var rows []*models.UserAchievement
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Achievement").
		Where("ua.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list user achievements: %w", err)
	}
	return rows, nil
}

func (r *achievementRepository) UpsertUnlock(ctx context.Context, userID, achievementID string, progress int64, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	row := &models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		Progress:      progress,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, achievement_id) DO UPDATE").
		Set("progress = GREATEST(user_achievements.progress, EXCLUDED.progress)").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}

	res, err := r.db.NewUpdate().
		Model((*models.UserAchievement)(nil)).
		Set("unlocked_at = ?", at).
		Where("user_id = ?", userID).
		Where("achievement_id = ?", achievementID).
		Where("unlocked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *achievementRepository) UpsertProgress(ctx context.Context, userID, achievementID string, progress int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	row := &models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		Progress:      progress,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, achievement_id) DO UPDATE").
		Set("progress = GREATEST(user_achievements.progress, EXCLUDED.progress)").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert achievement progress: %w", err)
	}
	return nil
}
