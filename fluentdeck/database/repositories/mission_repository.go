package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
	"golang.org/x/sync/singleflight"
)

const (
	catalogCacheSize = 128
	catalogCacheTTL  = 5 * time.Minute
)

type cachedCatalog struct {
	missions []*models.Mission
	loadedAt time.Time
}

type MissionRepository interface {
	// ListActive returns the live mission catalog. Results are cached;
	// catalog edits show up within the cache TTL.
	ListActive(ctx context.Context) ([]*models.Mission, error)
	GetByID(ctx context.Context, missionID string) (*models.Mission, error)

	// Assignment lifecycle
	CreateAssignment(ctx context.Context, assignment *models.UserMission) error
	GetAssignment(ctx context.Context, userID, missionID string) (*models.UserMission, error)
	ListAssignedSince(ctx context.Context, userID string, since time.Time) ([]*models.UserMission, error)
	ListOpenAssignments(ctx context.Context, userID string) ([]*models.UserMission, error)
	DeleteIncomplete(ctx context.Context, userID string) error

	// IncrementProgress adds delta to the assignment's progress, clamped
	// to target, and reports the resulting progress. Completed
	// assignments are left untouched.
	IncrementProgress(ctx context.Context, userID, missionID string, delta, target int) (int, error)
	// CompleteIfNotCompleted flips the assignment to completed and reports
	// whether this call made the transition. The reward must only be paid
	// when it returns true.
	CompleteIfNotCompleted(ctx context.Context, userID, missionID string, at time.Time) (bool, error)
}

type missionRepository struct {
	db    *bun.DB
	cache *lru.Cache
	group singleflight.Group
}

func NewMissionRepository(db *bun.DB) MissionRepository {
	cache, _ := lru.New(catalogCacheSize)
	return &missionRepository{db: db, cache: cache}
}

func (r *missionRepository) ListActive(ctx context.Context) ([]*models.Mission, error) {
	const key = "missions:active"

	if v, ok := r.cache.Get(key); ok {
		entry := v.(cachedCatalog)
		if time.Since(entry.loadedAt) < catalogCacheTTL {
			return entry.missions, nil
		}
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
		defer cancel()

		var missions []*models.Mission
		err := r.db.NewSelect().
			Model(&missions).
			Where("deleted_at IS NULL").
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list missions: %w", err)
		}
		r.cache.Add(key, cachedCatalog{missions: missions, loadedAt: time.Now()})
		return missions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Mission), nil
}

func (r *missionRepository) GetByID(ctx context.Context, missionID string) (*models.Mission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	mission := new(models.Mission)
	err := r.db.NewSelect().
		Model(mission).
		Where("id = ?", missionID).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrMissionNotFound
		}
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return mission, nil
}

func (r *missionRepository) CreateAssignment(ctx context.Context, assignment *models.UserMission) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	// A stale row from an earlier day is recycled into a fresh
	// assignment so the mission can come around again.
	_, err := r.db.NewInsert().
		Model(assignment).
		On("CONFLICT (user_id, mission_id) DO UPDATE").
		Set("progress = 0").
		Set("is_completed = false").
		Set("completed_at = NULL").
		Set("is_skipped = false").
		Set("assigned_at = EXCLUDED.assigned_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create mission assignment: %w", err)
	}
	return nil
}

func (r *missionRepository) GetAssignment(ctx context.Context, userID, missionID string) (*models.UserMission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	assignment := new(models.UserMission)
	err := r.db.NewSelect().
		Model(assignment).
		Relation("Mission").
		Where("um.user_id = ?", userID).
		Where("um.mission_id = ?", missionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrMissionNotAssigned
		}
		return nil, fmt.Errorf("failed to get mission assignment: %w", err)
	}
	return assignment, nil
}

func (r *missionRepository) ListAssignedSince(ctx context.Context, userID string, since time.Time) ([]*models.UserMission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var assignments []*models.UserMission
	err := r.db.NewSelect().
		Model(&assignments).
		Relation("Mission").
		Where("um.user_id = ?", userID).
		Where("um.assigned_at >= ?", since).
		Where("um.is_skipped = false").
		Order("um.assigned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mission assignments: %w", err)
	}
	return assignments, nil
}

func (r *missionRepository) ListOpenAssignments(ctx context.Context, userID string) ([]*models.UserMission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var assignments []*models.UserMission
	err := r.db.NewSelect().
		Model(&assignments).
		Relation("Mission").
		Where("um.user_id = ?", userID).
		Where("um.is_completed = false").
		Where("um.is_skipped = false").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open assignments: %w", err)
	}
	return assignments, nil
}

func (r *missionRepository) DeleteIncomplete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	_, err := r.db.NewDelete().
		Model((*models.UserMission)(nil)).
		Where("user_id = ?", userID).
		Where("is_completed = false").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete incomplete assignments: %w", err)
	}
	return nil
}

func (r *missionRepository) IncrementProgress(ctx context.Context, userID, missionID string, delta, target int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	assignment := new(models.UserMission)
	res, err := r.db.NewUpdate().
		Model(assignment).
		Set("progress = LEAST(progress + ?, ?)", delta, target).
		Where("user_id = ?", userID).
		Where("mission_id = ?", missionID).
		Where("is_completed = false").
		Returning("progress").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to update mission progress: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// Completed assignments keep their final progress
		existing, err := r.GetAssignment(ctx, userID, missionID)
		if err != nil {
			return 0, err
		}
		return existing.Progress, nil
	}
	return assignment.Progress, nil
}

func (r *missionRepository) CompleteIfNotCompleted(ctx context.Context, userID, missionID string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.UserMission)(nil)).
		Set("is_completed = true").
		Set("completed_at = ?", at).
		Where("user_id = ?", userID).
		Where("mission_id = ?", missionID).
		Where("is_completed = false").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to complete mission: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}
