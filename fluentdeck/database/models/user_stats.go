package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserStats is the per-user aggregate ledger. The "Today" counters are
// only meaningful when LastDailyReset falls on the current calendar day;
// they are zeroed lazily on the first touch of a new day.
//
// LastDailyReset doubles as the daily-mission assignment sentinel: the
// mission engine keys its once-a-day assignment off the same date.
type UserStats struct {
	bun.BaseModel `bun:"table:user_stats,alias:us"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID string `bun:"user_id,notnull,unique"`

	TotalXP      int64 `bun:"total_xp,notnull,default:0"`
	CurrentLevel int   `bun:"current_level,notnull,default:1"`

	TotalWords   int `bun:"total_words,notnull,default:0"`
	LearnedWords int `bun:"learned_words,notnull,default:0"`

	// Daily counters
	WordsViewedToday  int `bun:"words_viewed_today,notnull,default:0"`
	WordsLearnedToday int `bun:"words_learned_today,notnull,default:0"`
	CardsAddedToday   int `bun:"cards_added_today,notnull,default:0"`
	StoriesReadToday  int `bun:"stories_read_today,notnull,default:0"`

	TimeSpentSec      int64 `bun:"time_spent_sec,notnull,default:0"`
	TimeSpentTodaySec int64 `bun:"time_spent_today_sec,notnull,default:0"`

	LastDailyReset *time.Time `bun:"last_daily_reset"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SessionDelta carries the aggregate effect of one practice session on
// the stats ledger. All fields are relative increments.
type SessionDelta struct {
	XPGained          int64
	NewlyLearnedCount int
	CardsViewed       int
	TimeSpentSec      int64
}

// SameCalendarDay reports whether the reset sentinel falls on the same
// calendar day as ref, in local time.
func (s *UserStats) SameCalendarDay(ref time.Time) bool {
	if s.LastDailyReset == nil {
		return false
	}
	y1, m1, d1 := s.LastDailyReset.Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
