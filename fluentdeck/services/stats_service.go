package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
	"github.com/fluentdeck/fluentdeck/fluentdeck/leveling"
)

// StatsService owns the per-user aggregate ledger: XP, level, word
// counts and the daily counters. Every XP grant flows through it so
// the level and the proficiency tier can never drift from total XP.
type StatsService struct {
	stats repositories.UserStatsRepository
	users repositories.UserRepository
	calc  *leveling.Calculator
}

func NewStatsService(stats repositories.UserStatsRepository, users repositories.UserRepository, calc *leveling.Calculator) *StatsService {
	return &StatsService{
		stats: stats,
		users: users,
		calc:  calc,
	}
}

// InitializeForUser creates the stats row at registration time. It is
// idempotent.
func (s *StatsService) InitializeForUser(ctx context.Context, userID string) error {
	return s.stats.Create(ctx, &models.UserStats{
		UserID:       userID,
		CurrentLevel: 1,
	})
}

func (s *StatsService) GetSnapshot(ctx context.Context, userID string) (*models.UserStats, error) {
	return s.stats.GetByUserID(ctx, userID)
}

// XPToNextLevel reports how much XP is still missing for the next level.
func (s *StatsService) XPToNextLevel(totalXP int64) int64 {
	return s.calc.XPToNextLevel(totalXP)
}

// ApplySessionDelta folds a finished practice session into the ledger
// and reconciles the level afterwards.
func (s *StatsService) ApplySessionDelta(ctx context.Context, userID string, delta models.SessionDelta) (*models.UserStats, error) {
	stats, err := s.stats.ApplySessionDelta(ctx, userID, delta)
	if err != nil {
		return nil, err
	}
	return s.reconcileLevel(ctx, stats)
}

// ApplyCardCountDelta adjusts the word counters when cards are created,
// deleted or restored.
func (s *StatsService) ApplyCardCountDelta(ctx context.Context, userID string, delta, learnedDelta int) (*models.UserStats, error) {
	return s.stats.ApplyCardCountDelta(ctx, userID, delta, learnedDelta)
}

// AdjustLearnedWords moves the learned counter when a card's learned
// flag is toggled by hand.
func (s *StatsService) AdjustLearnedWords(ctx context.Context, userID string, delta int) error {
	return s.stats.AdjustLearnedWords(ctx, userID, delta)
}

// GrantXP awards XP outside a session, for mission rewards, and
// reconciles the level.
func (s *StatsService) GrantXP(ctx context.Context, userID string, xp int64) (*models.UserStats, error) {
	if xp <= 0 {
		return s.stats.GetByUserID(ctx, userID)
	}
	stats, err := s.stats.AddXP(ctx, userID, xp)
	if err != nil {
		return nil, err
	}
	return s.reconcileLevel(ctx, stats)
}

// reconcileLevel recomputes the level from total XP, persists it when
// it moved and advances the user's proficiency tier at milestones.
func (s *StatsService) reconcileLevel(ctx context.Context, stats *models.UserStats) (*models.UserStats, error) {
	level := s.calc.LevelForXP(stats.TotalXP)
	if level == stats.CurrentLevel {
		return stats, nil
	}

	if err := s.stats.SetLevel(ctx, stats.UserID, level); err != nil {
		return nil, err
	}
	stats.CurrentLevel = level

	slog.Info("User leveled up",
		slog.String("type", "sys"),
		slog.String("user_id", stats.UserID),
		slog.Int("level", level),
		slog.Int64("total_xp", stats.TotalXP),
	)

	if tier := s.calc.TierForLevel(level); tier != "" {
		if err := s.applyTierMilestone(ctx, stats.UserID, tier); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// applyTierMilestone raises the user's language level, never lowering it.
func (s *StatsService) applyTierMilestone(ctx context.Context, userID, tier string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if tierRank(tier) <= tierRank(user.CurrentLanguageLevel) {
		return nil
	}
	if err := s.users.UpdateLanguageLevel(ctx, userID, tier); err != nil {
		return fmt.Errorf("failed to advance language level: %w", err)
	}

	slog.Info("Language level advanced",
		slog.String("type", "sys"),
		slog.String("user_id", userID),
		slog.String("tier", tier),
	)
	return nil
}

func tierRank(tier string) int {
	switch tier {
	case models.LanguageLevelA0:
		return 0
	case models.LanguageLevelA1:
		return 1
	case models.LanguageLevelA2:
		return 2
	case models.LanguageLevelB1:
		return 3
	case models.LanguageLevelB2:
		return 4
	case models.LanguageLevelC1:
		return 5
	case models.LanguageLevelC2:
		return 6
	default:
		return -1
	}
}
