package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/leveling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testMigrator() *Migrator {
	return &Migrator{
		calc: leveling.NewCalculator(leveling.NewDefaultConfig()),
	}
}

func TestReadBSONDump(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.bson")

	docs := []bson.M{
		{"email": "one@example.com", "name": "One"},
		{"email": "two@example.com", "name": "Two"},
		{"email": "three@example.com", "name": "Three"},
	}
	var dump []byte
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		require.NoError(t, err)
		dump = append(dump, raw...)
	}
	require.NoError(t, os.WriteFile(path, dump, 0o644))

	var emails []string
	err := readBSONDump(path, func(doc []byte) error {
		var m bson.M
		if err := bson.Unmarshal(doc, &m); err != nil {
			return err
		}
		emails = append(emails, m["email"].(string))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one@example.com", "two@example.com", "three@example.com"}, emails)
}

func TestReadBSONDumpMissingFile(t *testing.T) {
	err := readBSONDump(filepath.Join(t.TempDir(), "nope.bson"), func([]byte) error { return nil })
	assert.True(t, os.IsNotExist(err))
}

func TestConvertUser(t *testing.T) {
	m := testMigrator()
	id := primitive.NewObjectID()
	mu := MongoUser{
		ID:            id,
		Email:         "  Student@Example.COM ",
		Name:          "Student\x00",
		Password:      "$2a$10$hash",
		LanguageLevel: "b1",
		TotalXP:       850,
		TimeSpentSec:  3600,
	}

	user := m.convertUser(mu)
	assert.Equal(t, id.Hex(), user.ID)
	assert.Equal(t, "student@example.com", user.Email)
	assert.Equal(t, "Student", user.Username)
	assert.Equal(t, models.LanguageLevelB1, user.CurrentLanguageLevel)

	stats := m.convertUserStats(mu)
	assert.Equal(t, id.Hex(), stats.UserID)
	assert.Equal(t, int64(850), stats.TotalXP)
	// 850 XP is past the level 3 boundary at 800
	assert.Equal(t, 3, stats.CurrentLevel)
	assert.Equal(t, int64(3600), stats.TimeSpentSec)
}

func TestConvertUserDefaultsTier(t *testing.T) {
	m := testMigrator()
	user := m.convertUser(MongoUser{ID: primitive.NewObjectID(), Email: "a@b.c"})
	assert.Equal(t, models.LanguageLevelA0, user.CurrentLanguageLevel)
}

func TestConvertCard(t *testing.T) {
	m := testMigrator()
	cardID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	card := m.convertCard(MongoCard{
		ID:         cardID,
		UserID:     userID,
		English:    " apple ",
		Russian:    "яблоко",
		Difficulty: "easy",
		Learned:    true,
		Deleted:    false,
		CreatedAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, cardID.Hex(), card.ID)
	assert.Equal(t, userID.Hex(), card.UserID)
	assert.Equal(t, "apple", card.EnglishWord)
	assert.Equal(t, "яблоко", card.RussianTranslation)
	assert.Equal(t, "EASY", card.DifficultyLevel)
	assert.True(t, card.IsLearned)
	assert.Nil(t, card.DeletedAt)

	deleted := m.convertCard(MongoCard{ID: cardID, UserID: userID, English: "a", Russian: "б", Deleted: true})
	assert.NotNil(t, deleted.DeletedAt)
}

func TestConvertProgress(t *testing.T) {
	m := testMigrator()

	row := m.convertProgress(MongoProgress{
		CardID:      primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		Mode:        "quiz",
		Correct:     7,
		Incorrect:   2,
		LastAttempt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, models.StudyModeQuiz, row.Mode)
	assert.Equal(t, 7, row.CorrectAnswers)
	assert.Equal(t, 2, row.IncorrectAnswers)

	// Unknown legacy mode falls back to flashcards
	fallback := m.convertProgress(MongoProgress{Mode: "memory"})
	assert.Equal(t, models.StudyModeFlashcards, fallback.Mode)
}
