package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/uptrace/bun"
)

type UserStatsRepository interface {
	Create(ctx context.Context, stats *models.UserStats) error
	GetByUserID(ctx context.Context, userID string) (*models.UserStats, error)
	// ApplySessionDelta atomically folds one session's effect into the
	// ledger and returns the updated row.
	ApplySessionDelta(ctx context.Context, userID string, delta models.SessionDelta) (*models.UserStats, error)
	// ApplyCardCountDelta adjusts totalWords (and learnedWords for learned
	// cards). cardsAddedToday only moves when delta is positive.
	ApplyCardCountDelta(ctx context.Context, userID string, delta, learnedDelta int) (*models.UserStats, error)
	AdjustLearnedWords(ctx context.Context, userID string, delta int) error
	// ResetDailyCounters zeroes the Today counters and stamps the reset
	// sentinel. The caller decides whether a reset is due.
	ResetDailyCounters(ctx context.Context, userID string, resetAt time.Time) error
	AddXP(ctx context.Context, userID string, xp int64) (*models.UserStats, error)
	SetLevel(ctx context.Context, userID string, level int) error
}

type userStatsRepository struct {
	db *bun.DB
}

func NewUserStatsRepository(db *bun.DB) UserStatsRepository {
	return &userStatsRepository{db: db}
}

func (r *userStatsRepository) Create(ctx context.Context, stats *models.UserStats) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	stats.CreatedAt = time.Now()
	stats.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(stats).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create user stats: %w", err)
	}
	return nil
}

func (r *userStatsRepository) GetByUserID(ctx context.Context, userID string) (*models.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	stats := new(models.UserStats)
	err := r.db.NewSelect().
		Model(stats).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStatsNotFound
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func (r *userStatsRepository) ApplySessionDelta(ctx context.Context, userID string, delta models.SessionDelta) (*models.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	stats := new(models.UserStats)
	res, err := r.db.NewUpdate().
		Model(stats).
		Set("total_xp = total_xp + ?", delta.XPGained).
		Set("learned_words = learned_words + ?", delta.NewlyLearnedCount).
		Set("words_learned_today = words_learned_today + ?", delta.NewlyLearnedCount).
		Set("words_viewed_today = words_viewed_today + ?", delta.CardsViewed).
		Set("time_spent_sec = time_spent_sec + ?", delta.TimeSpentSec).
		Set("time_spent_today_sec = time_spent_today_sec + ?", delta.TimeSpentSec).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply session delta: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, models.ErrStatsNotFound
	}
	return stats, nil
}

func (r *userStatsRepository) ApplyCardCountDelta(ctx context.Context, userID string, delta, learnedDelta int) (*models.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	addedToday := 0
	if delta > 0 {
		addedToday = delta
	}

	stats := new(models.UserStats)
	res, err := r.db.NewUpdate().
		Model(stats).
		Set("total_words = GREATEST(total_words + ?, 0)", delta).
		Set("learned_words = GREATEST(learned_words + ?, 0)", learnedDelta).
		Set("cards_added_today = cards_added_today + ?", addedToday).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply card count delta: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, models.ErrStatsNotFound
	}
	return stats, nil
}

func (r *userStatsRepository) AdjustLearnedWords(ctx context.Context, userID string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.UserStats)(nil)).
		Set("learned_words = GREATEST(learned_words + ?, 0)", delta).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust learned words: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrStatsNotFound
	}
	return nil
}

func (r *userStatsRepository) ResetDailyCounters(ctx context.Context, userID string, resetAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.UserStats)(nil)).
		Set("words_viewed_today = 0").
		Set("words_learned_today = 0").
		Set("cards_added_today = 0").
		Set("stories_read_today = 0").
		Set("time_spent_today_sec = 0").
		Set("last_daily_reset = ?", resetAt).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset daily counters: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrStatsNotFound
	}
	return nil
}

func (r *userStatsRepository) AddXP(ctx context.Context, userID string, xp int64) (*models.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	stats := new(models.UserStats)
	res, err := r.db.NewUpdate().
		Model(stats).
		Set("total_xp = total_xp + ?", xp).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to add xp: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, models.ErrStatsNotFound
	}
	return stats, nil
}

func (r *userStatsRepository) SetLevel(ctx context.Context, userID string, level int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.UserStats)(nil)).
		Set("current_level = ?", level).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set level: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrStatsNotFound
	}
	return nil
}
