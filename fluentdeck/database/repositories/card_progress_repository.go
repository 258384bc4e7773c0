package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/uptrace/bun"
)

type CardProgressRepository interface {
	GetByKey(ctx context.Context, cardID, userID, mode string) (*models.CardProgress, error)
	// RecordCorrect increments the streak by one and returns the updated row.
	RecordCorrect(ctx context.Context, cardID, userID, mode string, at time.Time) (*models.CardProgress, error)
	// RecordIncorrect resets the streak to zero and bumps the incorrect
	// counter, returning the updated row.
	RecordIncorrect(ctx context.Context, cardID, userID, mode string, at time.Time) (*models.CardProgress, error)
	// SetStreaks forces the streak counters on every mode row of the card.
	// Used when the learned flag is toggled by hand.
	SetStreaks(ctx context.Context, userID, cardID string, correct, incorrect int) error
	ListByUser(ctx context.Context, userID string) ([]*models.CardProgress, error)
	ListByCard(ctx context.Context, userID, cardID string) ([]*models.CardProgress, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

type cardProgressRepository struct {
	db *bun.DB
}

func NewCardProgressRepository(db *bun.DB) CardProgressRepository {
	return &cardProgressRepository{db: db}
}

func (r *cardProgressRepository) GetByKey(ctx context.Context, cardID, userID, mode string) (*models.CardProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	progress := new(models.CardProgress)
	err := r.db.NewSelect().
		Model(progress).
		Where("card_id = ?", cardID).
		Where("user_id = ?", userID).
		Where("mode = ?", mode).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card progress: %w", err)
	}
	return progress, nil
}

func (r *cardProgressRepository) RecordCorrect(ctx context.Context, cardID, userID, mode string, at time.Time) (*models.CardProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	progress := &models.CardProgress{
		CardID:         cardID,
		UserID:         userID,
		Mode:           mode,
		CorrectAnswers: 1,
		LastAttempt:    at,
	}
	_, err := r.db.NewInsert().
		Model(progress).
		On("CONFLICT (card_id, user_id, mode) DO UPDATE").
		Set("correct_answers = card_progress.correct_answers + 1").
		Set("last_attempt = EXCLUDED.last_attempt").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record correct answer: %w", err)
	}
	return progress, nil
}

func (r *cardProgressRepository) RecordIncorrect(ctx context.Context, cardID, userID, mode string, at time.Time) (*models.CardProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	progress := &models.CardProgress{
		CardID:           cardID,
		UserID:           userID,
		Mode:             mode,
		IncorrectAnswers: 1,
		LastAttempt:      at,
	}
	_, err := r.db.NewInsert().
		Model(progress).
		On("CONFLICT (card_id, user_id, mode) DO UPDATE").
		Set("correct_answers = 0").
		Set("incorrect_answers = card_progress.incorrect_answers + 1").
		Set("last_attempt = EXCLUDED.last_attempt").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record incorrect answer: %w", err)
	}
	return progress, nil
}

func (r *cardProgressRepository) SetStreaks(ctx context.Context, userID, cardID string, correct, incorrect int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.CardProgress)(nil)).
		Set("correct_answers = ?", correct).
		Set("incorrect_answers = ?", incorrect).
		Where("user_id = ?", userID).
		Where("card_id = ?", cardID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set card streaks: %w", err)
	}
	return nil
}

func (r *cardProgressRepository) ListByUser(ctx context.Context, userID string) ([]*models.CardProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var rows []*models.CardProgress
	err := r.db.NewSelect().
		Model(&rows).
		Where("cp.user_id = ?", userID).
		Order("last_attempt ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list card progress: %w", err)
	}
	return rows, nil
}

func (r *cardProgressRepository) ListByCard(ctx context.Context, userID, cardID string) ([]*models.CardProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var rows []*models.CardProgress
	err := r.db.NewSelect().
		Model(&rows).
		Where("cp.user_id = ?", userID).
		Where("cp.card_id = ?", cardID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list card progress: %w", err)
	}
	return rows, nil
}

// CountByUser counts all progress rows for a user; this is the session
// total used by achievement checks.
func (r *cardProgressRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.CardProgress)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count card progress: %w", err)
	}
	return count, nil
}
