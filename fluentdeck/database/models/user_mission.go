package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserMission is one day's assignment of a catalog mission to a user.
// Progress is clamped to the mission target and never decreases until
// the next daily reset replaces the assignment. COMPLETED is terminal.
type UserMission struct {
	bun.BaseModel `bun:"table:user_missions,alias:um"`

	ID        int64  `bun:"id,pk,autoincrement"`
	UserID    string `bun:"user_id,notnull"`
	MissionID string `bun:"mission_id,notnull"`

	Progress    int        `bun:"progress,notnull,default:0"`
	IsCompleted bool       `bun:"is_completed,notnull,default:false"`
	CompletedAt *time.Time `bun:"completed_at"`
	IsSkipped   bool       `bun:"is_skipped,notnull,default:false"`
	AssignedAt  time.Time  `bun:"assigned_at,notnull"`

	Mission *Mission `bun:"rel:belongs-to,join:mission_id=id"`
}

// ProgressPercentage returns completion as a percentage for display.
func (um *UserMission) ProgressPercentage() float64 {
	if um.Mission == nil || um.Mission.TargetValue == 0 {
		return 0
	}
	pct := float64(um.Progress) / float64(um.Mission.TargetValue) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
