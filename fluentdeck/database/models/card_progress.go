package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Study mode constants
const (
	StudyModeFlashcards = "FLASHCARDS"
	StudyModeQuiz       = "QUIZ"
	StudyModeLightning  = "LIGHTNING"
)

// LearnedStreakThreshold is the number of consecutive correct answers
// after which a card counts as learned.
const LearnedStreakThreshold = 10

// CardProgress tracks the answer streak for one (card, user, mode) triple.
// CorrectAnswers is a streak: it resets to zero on any incorrect answer.
// IncorrectAnswers only ever grows.
type CardProgress struct {
	bun.BaseModel `bun:"table:card_progress,alias:cp"`

	ID               int64     `bun:"id,pk,autoincrement"`
	CardID           string    `bun:"card_id,notnull"`
	UserID           string    `bun:"user_id,notnull"`
	Mode             string    `bun:"mode,notnull"`
	CorrectAnswers   int       `bun:"correct_answers,notnull,default:0"`
	IncorrectAnswers int       `bun:"incorrect_answers,notnull,default:0"`
	LastAttempt      time.Time `bun:"last_attempt,notnull"`

	Card *Card `bun:"rel:belongs-to,join:card_id=id"`
}

// StreakComplete reports whether the streak has reached the learned threshold.
func (p *CardProgress) StreakComplete() bool {
	return p.CorrectAnswers >= LearnedStreakThreshold
}
