package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
)

// CreateCardRequest carries the fields for a new card.
type CreateCardRequest struct {
	EnglishWord        string `json:"english_word"`
	RussianTranslation string `json:"russian_translation"`
	Notes              string `json:"notes"`
	DifficultyLevel    string `json:"difficulty_level"`
	AudioURL           string `json:"audio_url"`
}

// UpdateCardRequest carries the editable card fields.
type UpdateCardRequest struct {
	EnglishWord        string `json:"english_word"`
	RussianTranslation string `json:"russian_translation"`
	Notes              string `json:"notes"`
	DifficultyLevel    string `json:"difficulty_level"`
}

// CardService owns the card lifecycle. Deleting is always soft: the row
// keeps its streak history and the card can be restored. Word counters
// on the stats ledger track every lifecycle change.
type CardService struct {
	cards    repositories.CardRepository
	progress repositories.CardProgressRepository
	stats    *StatsService
	tracker  *MissionTracker
	rollover *DailyRollover
	storage  AudioStorage
}

func NewCardService(
	cards repositories.CardRepository,
	progress repositories.CardProgressRepository,
	stats *StatsService,
	tracker *MissionTracker,
	rollover *DailyRollover,
	storage AudioStorage,
) *CardService {
	return &CardService{
		cards:    cards,
		progress: progress,
		stats:    stats,
		tracker:  tracker,
		rollover: rollover,
		storage:  storage,
	}
}

func (s *CardService) Create(ctx context.Context, userID string, req CreateCardRequest) (*models.Card, error) {
	if strings.TrimSpace(req.EnglishWord) == "" || strings.TrimSpace(req.RussianTranslation) == "" {
		return nil, fmt.Errorf("%w: english word and russian translation are required", models.ErrValidation)
	}

	// The daily counters must be on today's ledger before this card
	// bumps them.
	if _, err := s.rollover.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	card := &models.Card{
		ID:                 uuid.NewString(),
		UserID:             userID,
		EnglishWord:        strings.TrimSpace(req.EnglishWord),
		RussianTranslation: strings.TrimSpace(req.RussianTranslation),
		Notes:              req.Notes,
		DifficultyLevel:    req.DifficultyLevel,
		AudioURL:           req.AudioURL,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	if _, err := s.stats.ApplyCardCountDelta(ctx, userID, 1, 0); err != nil {
		return nil, err
	}
	s.tracker.TrackCardAdded(ctx, userID, card.AudioURL != "")

	return card, nil
}

func (s *CardService) Get(ctx context.Context, userID, cardID string) (*models.Card, error) {
	return s.cards.GetByID(ctx, userID, cardID)
}

func (s *CardService) List(ctx context.Context, userID string) ([]*models.Card, error) {
	return s.cards.ListActive(ctx, userID)
}

func (s *CardService) ListDeleted(ctx context.Context, userID string) ([]*models.Card, error) {
	return s.cards.ListDeleted(ctx, userID)
}

func (s *CardService) Update(ctx context.Context, userID, cardID string, req UpdateCardRequest) (*models.Card, error) {
	card, err := s.cards.GetByID(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	card.EnglishWord = strings.TrimSpace(req.EnglishWord)
	card.RussianTranslation = strings.TrimSpace(req.RussianTranslation)
	card.Notes = req.Notes
	card.DifficultyLevel = req.DifficultyLevel

	if err := s.cards.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Delete soft-deletes the card and rolls the word counters back.
func (s *CardService) Delete(ctx context.Context, userID, cardID string) error {
	card, err := s.cards.GetByID(ctx, userID, cardID)
	if err != nil {
		return err
	}
	if err := s.cards.SoftDelete(ctx, userID, cardID); err != nil {
		return err
	}

	learnedDelta := 0
	if card.IsLearned {
		learnedDelta = -1
	}
	if _, err := s.stats.ApplyCardCountDelta(ctx, userID, -1, learnedDelta); err != nil {
		return err
	}
	return nil
}

// Restore brings a soft-deleted card back. The restore counts toward
// today's added cards like a fresh creation.
func (s *CardService) Restore(ctx context.Context, userID, cardID string) (*models.Card, error) {
	if _, err := s.rollover.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.cards.Restore(ctx, userID, cardID); err != nil {
		return nil, err
	}
	card, err := s.cards.GetByID(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	learnedDelta := 0
	if card.IsLearned {
		learnedDelta = 1
	}
	if _, err := s.stats.ApplyCardCountDelta(ctx, userID, 1, learnedDelta); err != nil {
		return nil, err
	}
	return card, nil
}

// SetLearnedStatus toggles the learned flag by hand, keeping the
// learned-words counter in step. Toggling to the current value is a
// no-op. The streaks on every study mode are forced to match the new
// flag, so an unlearned card cannot flip back from a single stale
// answer.
func (s *CardService) SetLearnedStatus(ctx context.Context, userID, cardID string, learned bool) (*models.Card, error) {
	card, err := s.cards.GetByID(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card.IsLearned == learned {
		return card, nil
	}

	if err := s.cards.SetLearned(ctx, userID, cardID, learned); err != nil {
		return nil, err
	}
	card.IsLearned = learned

	streak := 0
	if learned {
		streak = models.LearnedStreakThreshold
	}
	if err := s.progress.SetStreaks(ctx, userID, cardID, streak, 0); err != nil {
		return nil, err
	}

	delta := 1
	if !learned {
		delta = -1
	}
	if err := s.stats.AdjustLearnedWords(ctx, userID, delta); err != nil {
		return nil, err
	}
	return card, nil
}

// Search fuzzy-matches the query against both the English word and the
// Russian translation of the user's active cards, best match first.
func (s *CardService) Search(ctx context.Context, userID, query string) ([]*models.Card, error) {
	cards, err := s.cards.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return cards, nil
	}

	haystack := make([]string, len(cards))
	for i, card := range cards {
		haystack[i] = card.EnglishWord + " " + card.RussianTranslation
	}

	matches := fuzzy.Find(query, haystack)
	out := make([]*models.Card, 0, len(matches))
	for _, match := range matches {
		out = append(out, cards[match.Index])
	}
	return out, nil
}

// UploadAudio stores pronunciation audio for the card and records its
// public URL. With audio attached the card starts counting toward
// audio-card missions.
func (s *CardService) UploadAudio(ctx context.Context, userID, cardID string, data []byte, contentType string) (*models.Card, error) {
	card, err := s.cards.GetByID(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, fmt.Errorf("audio storage is not configured")
	}

	url, err := s.storage.UploadCardAudio(ctx, userID, cardID, data, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.cards.SetAudioURL(ctx, userID, cardID, url); err != nil {
		// The object is uploaded but unreferenced; log and surface the
		// DB failure.
		slog.Error("Failed to record audio url",
			slog.String("type", "db"),
			slog.String("user_id", userID),
			slog.String("card_id", cardID),
			slog.Any("error", err),
		)
		return nil, err
	}
	card.AudioURL = url
	return card, nil
}
