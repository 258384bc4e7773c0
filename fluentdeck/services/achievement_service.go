package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
)

// AchievementStatus pairs a catalog achievement with the user's state.
type AchievementStatus struct {
	Achievement *models.Achievement
	Unlocked    bool
	UnlockedAt  *time.Time
	Progress    int64
}

// AchievementService evaluates threshold achievements against the stats
// ledger. Each achievement names the metric it watches; evaluation is a
// pure comparison of the current metric value against the threshold, so
// re-running it is always safe.
type AchievementService struct {
	achievements repositories.AchievementRepository
	stats        repositories.UserStatsRepository
	progress     repositories.CardProgressRepository

	now func() time.Time
}

func NewAchievementService(
	achievements repositories.AchievementRepository,
	stats repositories.UserStatsRepository,
	progress repositories.CardProgressRepository,
) *AchievementService {
	return &AchievementService{
		achievements: achievements,
		stats:        stats,
		progress:     progress,
		now:          time.Now,
	}
}

// ListWithStatus returns the full catalog annotated with the user's
// unlock state. Secret achievements stay hidden until unlocked.
func (s *AchievementService) ListWithStatus(ctx context.Context, userID string) ([]*AchievementStatus, error) {
	catalog, err := s.achievements.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.achievements.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.UserAchievement, len(rows))
	for _, row := range rows {
		byID[row.AchievementID] = row
	}

	statuses := make([]*AchievementStatus, 0, len(catalog))
	for _, achievement := range catalog {
		status := &AchievementStatus{Achievement: achievement}
		if row, ok := byID[achievement.ID]; ok {
			status.Unlocked = row.IsUnlocked()
			status.UnlockedAt = row.UnlockedAt
			status.Progress = row.Progress
		}
		if achievement.IsSecret && !status.Unlocked {
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// EvaluateAndUnlock checks every threshold achievement against the
// user's current metrics, refreshing display progress as it goes, and
// returns the achievements unlocked by this call.
func (s *AchievementService) EvaluateAndUnlock(ctx context.Context, userID string) ([]*models.Achievement, error) {
	stats, err := s.stats.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.progress.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.achievements.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var unlocked []*models.Achievement
	for _, achievement := range catalog {
		if achievement.Threshold == nil {
			// Badge-only, granted through mission rewards
			continue
		}

		value, ok := metricValue(achievement.MetricKind, stats, sessions)
		if !ok {
			slog.Warn("Achievement has unknown metric kind",
				slog.String("type", "sys"),
				slog.String("achievement_id", achievement.ID),
				slog.String("metric_kind", achievement.MetricKind),
			)
			continue
		}

		if value >= *achievement.Threshold {
			unlockedNow, err := s.achievements.UpsertUnlock(ctx, userID, achievement.ID, *achievement.Threshold, s.now())
			if err != nil {
				return nil, err
			}
			if unlockedNow {
				slog.Info("Achievement unlocked",
					slog.String("type", "sys"),
					slog.String("user_id", userID),
					slog.String("achievement_id", achievement.ID),
				)
				unlocked = append(unlocked, achievement)
			}
			continue
		}

		if err := s.achievements.UpsertProgress(ctx, userID, achievement.ID, value); err != nil {
			return nil, err
		}
	}
	return unlocked, nil
}

func metricValue(metricKind string, stats *models.UserStats, sessions int) (int64, bool) {
	switch metricKind {
	case models.MetricWordsAdded:
		return int64(stats.TotalWords), true
	case models.MetricWordsLearned:
		return int64(stats.LearnedWords), true
	case models.MetricXPEarned:
		return stats.TotalXP, true
	case models.MetricLevelReached:
		return int64(stats.CurrentLevel), true
	case models.MetricSessionsCompleted:
		return int64(sessions), true
	case models.MetricTimeSpent:
		return stats.TimeSpentSec, true
	default:
		return 0, false
	}
}
