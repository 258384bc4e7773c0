package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoUser is a user document from the prototype's MongoDB export.
type MongoUser struct {
	ID            primitive.ObjectID `bson:"_id"`
	Email         string             `bson:"email"`
	Name          string             `bson:"name"`
	Password      string             `bson:"password"`
	LanguageLevel string             `bson:"languageLevel"`
	TotalXP       float64            `bson:"totalXp"`
	TimeSpentSec  float64            `bson:"timeSpent"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

// MongoCard is a vocabulary card document. The prototype kept a deleted
// flag instead of a deletion timestamp.
type MongoCard struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     primitive.ObjectID `bson:"userId"`
	English    string             `bson:"english"`
	Russian    string             `bson:"russian"`
	Notes      string             `bson:"notes"`
	AudioURL   string             `bson:"audioUrl"`
	Difficulty string             `bson:"difficulty"`
	Learned    bool               `bson:"learned"`
	Deleted    bool               `bson:"deleted"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// MongoProgress is a per-mode answer-streak document.
type MongoProgress struct {
	ID          primitive.ObjectID `bson:"_id"`
	CardID      primitive.ObjectID `bson:"cardId"`
	UserID      primitive.ObjectID `bson:"userId"`
	Mode        string             `bson:"mode"`
	Correct     float64            `bson:"correct"`
	Incorrect   float64            `bson:"incorrect"`
	LastAttempt time.Time          `bson:"lastAttempt"`
}

// TableStats tracks per-table import counts.
type TableStats struct {
	Read     int
	Imported int
	Skipped  int
}

// MigrationStats aggregates counts for the final report.
type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	EndTime   time.Time
}

func (s *MigrationStats) table(name string) *TableStats {
	if s.Tables == nil {
		s.Tables = make(map[string]*TableStats)
	}
	t, ok := s.Tables[name]
	if !ok {
		t = &TableStats{}
		s.Tables[name] = t
	}
	return t
}
