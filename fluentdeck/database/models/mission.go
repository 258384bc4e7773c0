package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Metric kinds drive both mission progress routing and achievement
// evaluation. Catalog rows carry an explicit kind so the dispatch never
// depends on display names staying in sync with code.
const (
	// Session-derived mission metrics
	MetricCorrectAnswers    = "correct_answers"
	MetricQuizSessions      = "quiz_sessions"
	MetricLightningSessions = "lightning_sessions"
	MetricCardsReviewed     = "cards_reviewed"
	MetricCardsAdded        = "cards_added"
	MetricAudioCardsAdded   = "audio_cards_added"
	MetricXPEarned          = "xp_earned"
	MetricStudyMinutes      = "study_minutes"

	// Achievement threshold metrics
	MetricWordsAdded        = "words_added"
	MetricWordsLearned      = "words_learned"
	MetricLevelReached      = "level_reached"
	MetricSessionsCompleted = "sessions_completed"
	MetricTimeSpent         = "time_spent"
)

// Mission is a catalog entry for a daily challenge. Catalog rows are
// shared across users and soft-deletable: retired missions are never
// newly assigned but existing assignments keep working.
type Mission struct {
	bun.BaseModel `bun:"table:missions,alias:m"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	MetricKind  string `bun:"metric_kind,notnull"`
	TargetValue int    `bun:"target_value,notnull"`
	RewardXP    int64  `bun:"reward_xp,notnull,default:0"`

	// Optional achievement unlocked directly on completion
	RewardBadgeID *string `bun:"reward_badge_id"`

	CreatedAt time.Time  `bun:"created_at,notnull"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
	DeletedAt *time.Time `bun:"deleted_at"`
}
