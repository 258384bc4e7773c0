package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string `bun:"id,pk"`
	Email        string `bun:"email,notnull,unique"`
	Username     string `bun:"username,notnull"`
	PasswordHash string `bun:"password_hash,notnull"`

	// Displayed proficiency tier (A0..C2), advanced by level milestones
	CurrentLanguageLevel string `bun:"current_language_level,notnull,default:'A0'"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Language proficiency tiers
const (
	LanguageLevelA0 = "A0"
	LanguageLevelA1 = "A1"
	LanguageLevelA2 = "A2"
	LanguageLevelB1 = "B1"
	LanguageLevelB2 = "B2"
	LanguageLevelC1 = "C1"
	LanguageLevelC2 = "C2"
)
