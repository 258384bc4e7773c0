package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID                 string `bun:"id,pk"`
	UserID             string `bun:"user_id,notnull"`
	EnglishWord        string `bun:"english_word,notnull"`
	RussianTranslation string `bun:"russian_translation,notnull"`
	Notes              string `bun:"notes"`
	AudioURL           string `bun:"audio_url"`
	DifficultyLevel    string `bun:"difficulty_level"`
	IsLearned          bool   `bun:"is_learned,notnull,default:false"`

	CreatedAt time.Time  `bun:"created_at,notnull"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
	DeletedAt *time.Time `bun:"deleted_at"`

	CardProgress []*CardProgress `bun:"rel:has-many,join:id=card_id"`
}

// IsActive reports whether the card is visible to the user (not soft-deleted).
func (c *Card) IsActive() bool {
	return c.DeletedAt == nil
}
