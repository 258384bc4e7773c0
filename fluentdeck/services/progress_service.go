package services

import (
	"context"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
)

// ProgressService tracks per-card answer streaks and the learned
// transition. A card becomes learned after ten consecutive correct
// answers in one study mode; any incorrect answer resets the streak.
type ProgressService struct {
	progress repositories.CardProgressRepository
	cards    repositories.CardRepository

	now func() time.Time
}

func NewProgressService(progress repositories.CardProgressRepository, cards repositories.CardRepository) *ProgressService {
	return &ProgressService{
		progress: progress,
		cards:    cards,
		now:      time.Now,
	}
}

// RecordAnswer updates the streak for one answer and reports whether
// the card just crossed into learned. The transition fires at most once
// per card: once the learned flag is set, further threshold crossings
// report false.
func (s *ProgressService) RecordAnswer(ctx context.Context, userID string, card *models.Card, mode string, correct bool) (bool, error) {
	now := s.now()

	if !correct {
		if _, err := s.progress.RecordIncorrect(ctx, card.ID, userID, mode, now); err != nil {
			return false, err
		}
		return false, nil
	}

	row, err := s.progress.RecordCorrect(ctx, card.ID, userID, mode, now)
	if err != nil {
		return false, err
	}

	if !row.StreakComplete() || card.IsLearned {
		return false, nil
	}

	if err := s.cards.SetLearned(ctx, userID, card.ID, true); err != nil {
		return false, err
	}
	card.IsLearned = true
	return true, nil
}

// GetCardProgress returns all per-mode streak rows for one card.
func (s *ProgressService) GetCardProgress(ctx context.Context, userID, cardID string) ([]*models.CardProgress, error) {
	return s.progress.ListByCard(ctx, userID, cardID)
}

// ListUserProgress returns every streak row for a user, oldest attempt
// first.
func (s *ProgressService) ListUserProgress(ctx context.Context, userID string) ([]*models.CardProgress, error) {
	return s.progress.ListByUser(ctx, userID)
}

// CountSessions reports the total number of (card, mode) practice rows,
// the measure used for session-count achievements.
func (s *ProgressService) CountSessions(ctx context.Context, userID string) (int, error) {
	return s.progress.CountByUser(ctx, userID)
}
