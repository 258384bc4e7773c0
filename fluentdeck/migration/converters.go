package migration

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
)

var legacyModes = map[string]string{
	"flashcards": models.StudyModeFlashcards,
	"quiz":       models.StudyModeQuiz,
	"lightning":  models.StudyModeLightning,
}

func (m *Migrator) convertUser(mu MongoUser) *models.User {
	now := time.Now()
	tier := strings.ToUpper(strings.TrimSpace(mu.LanguageLevel))
	if tier == "" {
		tier = models.LanguageLevelA0
	}
	createdAt := mu.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &models.User{
		ID:                   mu.ID.Hex(),
		Email:                strings.ToLower(strings.TrimSpace(mu.Email)),
		Username:             cleanseString(mu.Name),
		PasswordHash:         mu.Password,
		CurrentLanguageLevel: tier,
		CreatedAt:            createdAt,
		UpdatedAt:            now,
	}
}

// convertUserStats rebuilds the aggregate ledger from the legacy user
// document. Word counters are recomputed from the card import afterwards.
func (m *Migrator) convertUserStats(mu MongoUser) *models.UserStats {
	return &models.UserStats{
		UserID:       mu.ID.Hex(),
		TotalXP:      int64(mu.TotalXP),
		CurrentLevel: m.calc.LevelForXP(int64(mu.TotalXP)),
		TimeSpentSec: int64(mu.TimeSpentSec),
	}
}

func (m *Migrator) convertCard(mc MongoCard) *models.Card {
	now := time.Now()
	createdAt := mc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	card := &models.Card{
		ID:                 mc.ID.Hex(),
		UserID:             mc.UserID.Hex(),
		EnglishWord:        cleanseString(mc.English),
		RussianTranslation: cleanseString(mc.Russian),
		Notes:              cleanseString(mc.Notes),
		AudioURL:           mc.AudioURL,
		DifficultyLevel:    strings.ToUpper(mc.Difficulty),
		IsLearned:          mc.Learned,
		CreatedAt:          createdAt,
		UpdatedAt:          now,
	}
	if mc.Deleted {
		card.DeletedAt = &now
	}
	return card
}

func (m *Migrator) convertProgress(mp MongoProgress) *models.CardProgress {
	mode, ok := legacyModes[strings.ToLower(mp.Mode)]
	if !ok {
		mode = models.StudyModeFlashcards
	}
	lastAttempt := mp.LastAttempt
	if lastAttempt.IsZero() {
		lastAttempt = time.Now()
	}
	return &models.CardProgress{
		CardID:           mp.CardID.Hex(),
		UserID:           mp.UserID.Hex(),
		Mode:             mode,
		CorrectAnswers:   int(mp.Correct),
		IncorrectAnswers: int(mp.Incorrect),
		LastAttempt:      lastAttempt,
	}
}

// cleanseString strips null bytes and invalid UTF-8 that Postgres rejects.
func cleanseString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.TrimSpace(s)
}
