package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
)

// DailyRollover owns the once-a-day transition for a user: zeroing the
// daily stat counters and replacing the daily mission assignment. Both
// are keyed off the single LastDailyReset sentinel on the stats row, so
// a user can never end up with fresh counters but yesterday's mission.
//
// The rollover is lazy: nothing happens at midnight, the first touch of
// a new calendar day triggers it.
type DailyRollover struct {
	stats    repositories.UserStatsRepository
	missions repositories.MissionRepository

	now  func() time.Time
	pick func(n int) int
}

func NewDailyRollover(stats repositories.UserStatsRepository, missions repositories.MissionRepository) *DailyRollover {
	return &DailyRollover{
		stats:    stats,
		missions: missions,
		now:      time.Now,
		pick:     rand.Intn,
	}
}

// Ensure performs the rollover when the sentinel is stale and reports
// whether it did. Calling it again on the same day is a no-op.
func (d *DailyRollover) Ensure(ctx context.Context, userID string) (bool, error) {
	stats, err := d.stats.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}

	now := d.now()
	if stats.SameCalendarDay(now) {
		return false, nil
	}

	// Yesterday's unfinished mission does not carry over.
	if err := d.missions.DeleteIncomplete(ctx, userID); err != nil {
		return false, fmt.Errorf("failed to clear stale assignments: %w", err)
	}

	if err := d.assignDailyMission(ctx, userID, now); err != nil {
		return false, err
	}

	// Stamping the sentinel last keeps the rollover retryable: a crash
	// above means the next touch runs it again.
	if err := d.stats.ResetDailyCounters(ctx, userID, now); err != nil {
		return false, err
	}

	slog.Info("Daily rollover applied",
		slog.String("type", "sys"),
		slog.String("user_id", userID),
	)
	return true, nil
}

// assignDailyMission picks one catalog mission uniformly at random and
// assigns it. Missions repeat across days; a leftover completed row for
// the picked mission is recycled into a fresh assignment.
func (d *DailyRollover) assignDailyMission(ctx context.Context, userID string, now time.Time) error {
	catalog, err := d.missions.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(catalog) == 0 {
		slog.Warn("Mission catalog is empty, skipping daily assignment",
			slog.String("type", "sys"),
			slog.String("user_id", userID),
		)
		return nil
	}

	mission := catalog[d.pick(len(catalog))]
	return d.missions.CreateAssignment(ctx, &models.UserMission{
		UserID:     userID,
		MissionID:  mission.ID,
		AssignedAt: now,
	})
}
