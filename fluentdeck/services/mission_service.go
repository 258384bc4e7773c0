package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
)

// MissionService manages daily mission assignments: progress, completion
// and reward payout. Progress moves in increments clamped to the
// mission target; the reward is paid exactly once, on the transition to
// completed.
type MissionService struct {
	missions     repositories.MissionRepository
	achievements repositories.AchievementRepository
	stats        *StatsService
	rollover     *DailyRollover

	now func() time.Time
}

func NewMissionService(
	missions repositories.MissionRepository,
	achievements repositories.AchievementRepository,
	stats *StatsService,
	rollover *DailyRollover,
) *MissionService {
	return &MissionService{
		missions:     missions,
		achievements: achievements,
		stats:        stats,
		rollover:     rollover,
		now:          time.Now,
	}
}

// GetDailyMissions returns today's assignments, performing the daily
// rollover first when it is due.
func (s *MissionService) GetDailyMissions(ctx context.Context, userID string) ([]*models.UserMission, error) {
	if _, err := s.rollover.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.missions.ListAssignedSince(ctx, userID, startOfDay)
}

// AdvanceProgress adds increment to the assignment's progress (clamped
// to the mission target) and completes it when the target is reached.
// Reports whether this call completed the mission.
func (s *MissionService) AdvanceProgress(ctx context.Context, userID, missionID string, increment int) (*models.UserMission, bool, error) {
	assignment, err := s.missions.GetAssignment(ctx, userID, missionID)
	if err != nil {
		return nil, false, err
	}
	mission := assignment.Mission

	progress, err := s.missions.IncrementProgress(ctx, userID, missionID, increment, mission.TargetValue)
	if err != nil {
		return nil, false, err
	}
	assignment.Progress = progress

	if progress < mission.TargetValue {
		return assignment, false, nil
	}

	completedNow, err := s.missions.CompleteIfNotCompleted(ctx, userID, missionID, s.now())
	if err != nil {
		return nil, false, err
	}
	if completedNow {
		if err := s.payReward(ctx, userID, mission); err != nil {
			return nil, false, err
		}
		now := s.now()
		assignment.IsCompleted = true
		assignment.CompletedAt = &now
	}
	return assignment, completedNow, nil
}

// CompleteManually finishes the mission regardless of tracked progress.
func (s *MissionService) CompleteManually(ctx context.Context, userID, missionID string) (*models.UserMission, bool, error) {
	assignment, err := s.missions.GetAssignment(ctx, userID, missionID)
	if err != nil {
		return nil, false, err
	}
	return s.AdvanceProgress(ctx, userID, missionID, assignment.Mission.TargetValue)
}

func (s *MissionService) payReward(ctx context.Context, userID string, mission *models.Mission) error {
	if mission.RewardXP > 0 {
		if _, err := s.stats.GrantXP(ctx, userID, mission.RewardXP); err != nil {
			return err
		}
	}

	if mission.RewardBadgeID != nil {
		if _, err := s.achievements.UpsertUnlock(ctx, userID, *mission.RewardBadgeID, 0, s.now()); err != nil {
			// The mission is already completed; a badge hiccup should not
			// fail the request.
			slog.Error("Failed to grant mission badge",
				slog.String("type", "sys"),
				slog.String("user_id", userID),
				slog.String("mission_id", mission.ID),
				slog.String("badge_id", *mission.RewardBadgeID),
				slog.Any("error", err),
			)
		}
	}

	slog.Info("Mission completed",
		slog.String("type", "sys"),
		slog.String("user_id", userID),
		slog.String("mission_id", mission.ID),
		slog.Int64("reward_xp", mission.RewardXP),
	)
	return nil
}
