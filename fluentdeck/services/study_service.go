package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
	"github.com/fluentdeck/fluentdeck/fluentdeck/leveling"
)

// reviewStreakCutoff: cards below this streak are offered for review
// even when not yet learned.
const reviewStreakCutoff = 5

// SessionAnswer is one answered card in a practice session.
type SessionAnswer struct {
	CardID  string `json:"card_id"`
	Correct bool   `json:"correct"`
}

// SessionResult is a finished practice session as submitted by the
// client.
type SessionResult struct {
	Mode         string          `json:"mode"`
	TimeSpentSec int64           `json:"time_spent_sec"`
	Answers      []SessionAnswer `json:"answers"`
}

// SessionSummary is what a submitted session earned.
type SessionSummary struct {
	XPGained             int64                 `json:"xp_gained"`
	NewlyLearnedCardIDs  []string              `json:"newly_learned_card_ids"`
	CardsViewed          int                   `json:"cards_viewed"`
	TotalXP              int64                 `json:"total_xp"`
	Level                int                   `json:"level"`
	UnlockedAchievements []*models.Achievement `json:"unlocked_achievements"`
}

// StudyService orchestrates a practice session end to end: ownership
// validation, streak updates, XP, the stats ledger, mission tracking and
// achievement evaluation.
type StudyService struct {
	cards        repositories.CardRepository
	progress     *ProgressService
	stats        *StatsService
	achievements *AchievementService
	tracker      *MissionTracker
	rollover     *DailyRollover
	calc         *leveling.Calculator
}

func NewStudyService(
	cards repositories.CardRepository,
	progress *ProgressService,
	stats *StatsService,
	achievements *AchievementService,
	tracker *MissionTracker,
	rollover *DailyRollover,
	calc *leveling.Calculator,
) *StudyService {
	return &StudyService{
		cards:        cards,
		progress:     progress,
		stats:        stats,
		achievements: achievements,
		tracker:      tracker,
		rollover:     rollover,
		calc:         calc,
	}
}

// SubmitSessionResult applies one finished practice session. The whole
// session is rejected with ErrCardsNotOwned when any answered card does
// not belong to the user or has been deleted. Mission tracking and
// achievement evaluation are best-effort; streak and ledger updates are
// not.
func (s *StudyService) SubmitSessionResult(ctx context.Context, userID string, result SessionResult) (*SessionSummary, error) {
	if err := validateStudyMode(result.Mode); err != nil {
		return nil, err
	}
	if len(result.Answers) == 0 {
		return nil, fmt.Errorf("%w: session has no answers", models.ErrValidation)
	}

	if _, err := s.rollover.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	cardByID, err := s.loadOwnedCards(ctx, userID, result.Answers)
	if err != nil {
		return nil, err
	}

	var (
		xpGained     int64
		correctCount int
		newlyLearned []string
	)
	for _, answer := range result.Answers {
		card := cardByID[answer.CardID]
		learnedNow, err := s.progress.RecordAnswer(ctx, userID, card, result.Mode, answer.Correct)
		if err != nil {
			return nil, err
		}
		if learnedNow {
			newlyLearned = append(newlyLearned, card.ID)
		}
		if answer.Correct {
			correctCount++
		}
		xpGained += s.calc.XPForAnswer(answer.Correct)
	}

	stats, err := s.stats.ApplySessionDelta(ctx, userID, models.SessionDelta{
		XPGained:          xpGained,
		NewlyLearnedCount: len(newlyLearned),
		CardsViewed:       len(cardByID),
		TimeSpentSec:      result.TimeSpentSec,
	})
	if err != nil {
		return nil, err
	}

	s.tracker.TrackSession(ctx, userID, SessionEvent{
		Mode:           result.Mode,
		CorrectAnswers: correctCount,
		CardsReviewed:  len(cardByID),
		XPGained:       xpGained,
		TimeSpentSec:   result.TimeSpentSec,
	})

	unlocked, err := s.achievements.EvaluateAndUnlock(ctx, userID)
	if err != nil {
		// The session already counted; achievements catch up on the next
		// evaluation.
		slog.Warn("Achievement evaluation failed after session",
			slog.String("type", "sys"),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		unlocked = nil
	}

	return &SessionSummary{
		XPGained:             xpGained,
		NewlyLearnedCardIDs:  newlyLearned,
		CardsViewed:          len(cardByID),
		TotalXP:              stats.TotalXP,
		Level:                stats.CurrentLevel,
		UnlockedAchievements: unlocked,
	}, nil
}

// GetCardsToReview returns active cards worth reviewing in a mode:
// unlearned cards and cards whose streak is still low, least recently
// attempted first. Cards never attempted come before everything else.
func (s *StudyService) GetCardsToReview(ctx context.Context, userID, mode string, limit int) ([]*models.Card, error) {
	if err := validateStudyMode(mode); err != nil {
		return nil, err
	}

	cards, err := s.cards.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	progressRows, err := s.progress.ListUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	progressByCard := make(map[string]*models.CardProgress, len(progressRows))
	for _, row := range progressRows {
		if row.Mode == mode {
			progressByCard[row.CardID] = row
		}
	}

	var due []*models.Card
	for _, card := range cards {
		row := progressByCard[card.ID]
		if row == nil {
			if !card.IsLearned {
				due = append(due, card)
			}
			continue
		}
		if !card.IsLearned || row.CorrectAnswers < reviewStreakCutoff {
			due = append(due, card)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		pi, pj := progressByCard[due[i].ID], progressByCard[due[j].ID]
		if pi == nil {
			return pj != nil
		}
		if pj == nil {
			return false
		}
		return pi.LastAttempt.Before(pj.LastAttempt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// CardStudyProgress is the per-card study summary across modes.
type CardStudyProgress struct {
	Card        *models.Card           `json:"card"`
	PerMode     []*models.CardProgress `json:"per_mode"`
	BestStreak  int                    `json:"best_streak"`
	LastAttempt *time.Time             `json:"last_attempt,omitempty"`
}

// GetStudyProgress returns per-card streak summaries for all active
// cards.
func (s *StudyService) GetStudyProgress(ctx context.Context, userID string) ([]*CardStudyProgress, error) {
	cards, err := s.cards.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	byCard := make(map[string][]*models.CardProgress)
	for _, row := range rows {
		byCard[row.CardID] = append(byCard[row.CardID], row)
	}

	out := make([]*CardStudyProgress, 0, len(cards))
	for _, card := range cards {
		entry := &CardStudyProgress{Card: card, PerMode: byCard[card.ID]}
		for _, row := range entry.PerMode {
			if row.CorrectAnswers > entry.BestStreak {
				entry.BestStreak = row.CorrectAnswers
			}
			if entry.LastAttempt == nil || row.LastAttempt.After(*entry.LastAttempt) {
				attempt := row.LastAttempt
				entry.LastAttempt = &attempt
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *StudyService) loadOwnedCards(ctx context.Context, userID string, answers []SessionAnswer) (map[string]*models.Card, error) {
	ids := make([]string, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, answer := range answers {
		if !seen[answer.CardID] {
			seen[answer.CardID] = true
			ids = append(ids, answer.CardID)
		}
	}

	cards, err := s.cards.ListActiveByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(cards) != len(ids) {
		return nil, models.ErrCardsNotOwned
	}

	byID := make(map[string]*models.Card, len(cards))
	for _, card := range cards {
		byID[card.ID] = card
	}
	return byID, nil
}

func validateStudyMode(mode string) error {
	switch mode {
	case models.StudyModeFlashcards, models.StudyModeQuiz, models.StudyModeLightning:
		return nil
	default:
		return fmt.Errorf("%w: unknown study mode %q", models.ErrValidation, mode)
	}
}
