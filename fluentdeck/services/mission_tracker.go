package services

import (
	"context"
	"log/slog"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
)

// SessionEvent is the mission-relevant summary of one finished practice
// session.
type SessionEvent struct {
	Mode           string
	CorrectAnswers int
	CardsReviewed  int
	XPGained       int64
	TimeSpentSec   int64
}

// MissionTracker routes gameplay events into open mission assignments.
// All tracking is best-effort: a mission failure must never fail the
// action that produced the event, so errors are logged and swallowed.
type MissionTracker struct {
	missionService *MissionService
}

func NewMissionTracker(missionService *MissionService) *MissionTracker {
	return &MissionTracker{missionService: missionService}
}

// TrackSession advances every open assignment the session contributes to.
func (t *MissionTracker) TrackSession(ctx context.Context, userID string, event SessionEvent) {
	if t.missionService == nil {
		return
	}

	open, err := t.missionService.missions.ListOpenAssignments(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load open assignments for tracking",
			slog.String("type", "sys"),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return
	}

	for _, assignment := range open {
		if assignment.Mission == nil {
			continue
		}
		delta := sessionMetricDelta(assignment.Mission.MetricKind, event)
		if delta <= 0 {
			continue
		}
		t.advance(ctx, userID, assignment, delta)
	}
}

// TrackCardAdded advances card-creation missions by one.
func (t *MissionTracker) TrackCardAdded(ctx context.Context, userID string, hasAudio bool) {
	if t.missionService == nil {
		return
	}

	open, err := t.missionService.missions.ListOpenAssignments(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load open assignments for tracking",
			slog.String("type", "sys"),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return
	}

	for _, assignment := range open {
		if assignment.Mission == nil {
			continue
		}
		switch assignment.Mission.MetricKind {
		case models.MetricCardsAdded:
			t.advance(ctx, userID, assignment, 1)
		case models.MetricAudioCardsAdded:
			if hasAudio {
				t.advance(ctx, userID, assignment, 1)
			}
		}
	}
}

func (t *MissionTracker) advance(ctx context.Context, userID string, assignment *models.UserMission, delta int) {
	_, _, err := t.missionService.AdvanceProgress(ctx, userID, assignment.MissionID, delta)
	if err != nil {
		slog.Warn("Failed to track mission progress",
			slog.String("type", "sys"),
			slog.String("user_id", userID),
			slog.String("mission_id", assignment.MissionID),
			slog.Any("error", err),
		)
	}
}

func sessionMetricDelta(metricKind string, event SessionEvent) int {
	switch metricKind {
	case models.MetricCorrectAnswers:
		return event.CorrectAnswers
	case models.MetricQuizSessions:
		if event.Mode == models.StudyModeQuiz {
			return 1
		}
	case models.MetricLightningSessions:
		if event.Mode == models.StudyModeLightning {
			return 1
		}
	case models.MetricCardsReviewed:
		return event.CardsReviewed
	case models.MetricXPEarned:
		return int(event.XPGained)
	case models.MetricStudyMinutes:
		return int(event.TimeSpentSec / 60)
	}
	return 0
}
