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

type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, userID, cardID string) (*models.Card, error)
	ListActive(ctx context.Context, userID string) ([]*models.Card, error)
	ListActiveByIDs(ctx context.Context, userID string, ids []string) ([]*models.Card, error)
	ListDeleted(ctx context.Context, userID string) ([]*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
	SoftDelete(ctx context.Context, userID, cardID string) error
	Restore(ctx context.Context, userID, cardID string) error
	SetLearned(ctx context.Context, userID, cardID string, learned bool) error
	SetAudioURL(ctx context.Context, userID, cardID, audioURL string) error
	CountActive(ctx context.Context, userID string) (int, error)
	CountLearned(ctx context.Context, userID string) (int, error)
}

type cardRepository struct {
	db *bun.DB
}

func NewCardRepository(db *bun.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	card.CreatedAt = time.Now()
	card.UpdatedAt = time.Now()

	if _, err := r.db.NewInsert().Model(card).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// GetByID returns the card only when it belongs to userID and has not
// been soft-deleted.
func (r *cardRepository) GetByID(ctx context.Context, userID, cardID string) (*models.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	card := new(models.Card)
	err := r.db.NewSelect().
		Model(card).
		Where("id = ?", cardID).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (r *cardRepository) ListActive(ctx context.Context, userID string) ([]*models.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

func (r *cardRepository) ListActiveByIDs(ctx context.Context, userID string, ids []string) ([]*models.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("user_id = ?", userID).
		Where("id IN (?)", bun.In(ids)).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards by ids: %w", err)
	}
	return cards, nil
}

func (r *cardRepository) ListDeleted(ctx context.Context, userID string) ([]*models.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("user_id = ?", userID).
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted cards: %w", err)
	}
	return cards, nil
}

func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	card.UpdatedAt = time.Now()

	res, err := r.db.NewUpdate().
		Model(card).
		Column("english_word", "russian_translation", "notes", "difficulty_level", "updated_at").
		Where("id = ?", card.ID).
		Where("user_id = ?", card.UserID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) SoftDelete(ctx context.Context, userID, cardID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Card)(nil)).
		Set("deleted_at = ?", time.Now()).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", cardID).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to soft-delete card: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) Restore(ctx context.Context, userID, cardID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Card)(nil)).
		Set("deleted_at = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", cardID).
		Where("user_id = ?", userID).
		Where("deleted_at IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore card: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) SetLearned(ctx context.Context, userID, cardID string, learned bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Card)(nil)).
		Set("is_learned = ?", learned).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", cardID).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set learned flag: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) SetAudioURL(ctx context.Context, userID, cardID, audioURL string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Card)(nil)).
		Set("audio_url = ?", audioURL).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", cardID).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set audio url: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) CountActive(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Card)(nil)).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

func (r *cardRepository) CountLearned(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Card)(nil)).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Where("is_learned = true").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count learned cards: %w", err)
	}
	return count, nil
}
