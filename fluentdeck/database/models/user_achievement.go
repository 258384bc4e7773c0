package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserAchievement is created lazily, on first unlock or first progress
// refresh. UnlockedAt is write-once: once set it is never cleared, and
// later progress refreshes must not re-fire the unlock.
type UserAchievement struct {
	bun.BaseModel `bun:"table:user_achievements,alias:ua"`

	ID            int64  `bun:"id,pk,autoincrement"`
	UserID        string `bun:"user_id,notnull"`
	AchievementID string `bun:"achievement_id,notnull"`

	UnlockedAt *time.Time `bun:"unlocked_at"`

	// Mirrors the relevant stat for display, refreshed even before unlock
	Progress int64 `bun:"progress,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Achievement *Achievement `bun:"rel:belongs-to,join:achievement_id=id"`
}

// IsUnlocked reports whether the achievement has been unlocked.
func (ua *UserAchievement) IsUnlocked() bool {
	return ua.UnlockedAt != nil
}
