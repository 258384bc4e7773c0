package services

import (
	"context"
	"sort"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
)

// In-memory repository fakes. They mirror the SQL semantics the real
// repositories implement: clamped mission progress, write-once unlock
// timestamps, conditional completion.

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateLanguageLevel(_ context.Context, userID, level string) error {
	user, ok := f.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.CurrentLanguageLevel = level
	return nil
}

type fakeStatsRepo struct {
	stats map[string]*models.UserStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: map[string]*models.UserStats{}}
}

func (f *fakeStatsRepo) Create(_ context.Context, stats *models.UserStats) error {
	if _, ok := f.stats[stats.UserID]; ok {
		return nil
	}
	f.stats[stats.UserID] = stats
	return nil
}

func (f *fakeStatsRepo) GetByUserID(_ context.Context, userID string) (*models.UserStats, error) {
	stats, ok := f.stats[userID]
	if !ok {
		return nil, models.ErrStatsNotFound
	}
	clone := *stats
	return &clone, nil
}

func (f *fakeStatsRepo) ApplySessionDelta(_ context.Context, userID string, delta models.SessionDelta) (*models.UserStats, error) {
	stats, ok := f.stats[userID]
	if !ok {
		return nil, models.ErrStatsNotFound
	}
	stats.TotalXP += delta.XPGained
	stats.LearnedWords += delta.NewlyLearnedCount
	stats.WordsLearnedToday += delta.NewlyLearnedCount
	stats.WordsViewedToday += delta.CardsViewed
	stats.TimeSpentSec += delta.TimeSpentSec
	stats.TimeSpentTodaySec += delta.TimeSpentSec
	clone := *stats
	return &clone, nil
}

func (f *fakeStatsRepo) ApplyCardCountDelta(_ context.Context, userID string, delta, learnedDelta int) (*models.UserStats, error) {
	stats, ok := f.stats[userID]
	if !ok {
		return nil, models.ErrStatsNotFound
	}
	stats.TotalWords += delta
	if stats.TotalWords < 0 {
		stats.TotalWords = 0
	}
	stats.LearnedWords += learnedDelta
	if stats.LearnedWords < 0 {
		stats.LearnedWords = 0
	}
	if delta > 0 {
		stats.CardsAddedToday += delta
	}
	clone := *stats
	return &clone, nil
}

func (f *fakeStatsRepo) AdjustLearnedWords(_ context.Context, userID string, delta int) error {
	stats, ok := f.stats[userID]
	if !ok {
		return models.ErrStatsNotFound
	}
	stats.LearnedWords += delta
	if stats.LearnedWords < 0 {
		stats.LearnedWords = 0
	}
	return nil
}

func (f *fakeStatsRepo) ResetDailyCounters(_ context.Context, userID string, resetAt time.Time) error {
	stats, ok := f.stats[userID]
	if !ok {
		return models.ErrStatsNotFound
	}
	stats.WordsViewedToday = 0
	stats.WordsLearnedToday = 0
	stats.CardsAddedToday = 0
	stats.StoriesReadToday = 0
	stats.TimeSpentTodaySec = 0
	stats.LastDailyReset = &resetAt
	return nil
}

func (f *fakeStatsRepo) AddXP(_ context.Context, userID string, xp int64) (*models.UserStats, error) {
	stats, ok := f.stats[userID]
	if !ok {
		return nil, models.ErrStatsNotFound
	}
	stats.TotalXP += xp
	clone := *stats
	return &clone, nil
}

func (f *fakeStatsRepo) SetLevel(_ context.Context, userID string, level int) error {
	stats, ok := f.stats[userID]
	if !ok {
		return models.ErrStatsNotFound
	}
	stats.CurrentLevel = level
	return nil
}

type fakeCardRepo struct {
	cards map[string]*models.Card
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{cards: map[string]*models.Card{}}
}

func (f *fakeCardRepo) Create(_ context.Context, card *models.Card) error {
	f.cards[card.ID] = card
	return nil
}

func (f *fakeCardRepo) GetByID(_ context.Context, userID, cardID string) (*models.Card, error) {
	card, ok := f.cards[cardID]
	if !ok || card.UserID != userID || card.DeletedAt != nil {
		return nil, models.ErrCardNotFound
	}
	return card, nil
}

func (f *fakeCardRepo) ListActive(_ context.Context, userID string) ([]*models.Card, error) {
	var out []*models.Card
	for _, card := range f.cards {
		if card.UserID == userID && card.DeletedAt == nil {
			out = append(out, card)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCardRepo) ListActiveByIDs(_ context.Context, userID string, ids []string) ([]*models.Card, error) {
	var out []*models.Card
	for _, id := range ids {
		card, ok := f.cards[id]
		if ok && card.UserID == userID && card.DeletedAt == nil {
			out = append(out, card)
		}
	}
	return out, nil
}

func (f *fakeCardRepo) ListDeleted(_ context.Context, userID string) ([]*models.Card, error) {
	var out []*models.Card
	for _, card := range f.cards {
		if card.UserID == userID && card.DeletedAt != nil {
			out = append(out, card)
		}
	}
	return out, nil
}

func (f *fakeCardRepo) Update(_ context.Context, card *models.Card) error {
	existing, ok := f.cards[card.ID]
	if !ok || existing.UserID != card.UserID || existing.DeletedAt != nil {
		return models.ErrCardNotFound
	}
	f.cards[card.ID] = card
	return nil
}

func (f *fakeCardRepo) SoftDelete(_ context.Context, userID, cardID string) error {
	card, ok := f.cards[cardID]
	if !ok || card.UserID != userID || card.DeletedAt != nil {
		return models.ErrCardNotFound
	}
	now := time.Now()
	card.DeletedAt = &now
	return nil
}

func (f *fakeCardRepo) Restore(_ context.Context, userID, cardID string) error {
	card, ok := f.cards[cardID]
	if !ok || card.UserID != userID || card.DeletedAt == nil {
		return models.ErrCardNotFound
	}
	card.DeletedAt = nil
	return nil
}

func (f *fakeCardRepo) SetLearned(_ context.Context, userID, cardID string, learned bool) error {
	card, ok := f.cards[cardID]
	if !ok || card.UserID != userID || card.DeletedAt != nil {
		return models.ErrCardNotFound
	}
	card.IsLearned = learned
	return nil
}

func (f *fakeCardRepo) SetAudioURL(_ context.Context, userID, cardID, audioURL string) error {
	card, ok := f.cards[cardID]
	if !ok || card.UserID != userID || card.DeletedAt != nil {
		return models.ErrCardNotFound
	}
	card.AudioURL = audioURL
	return nil
}

func (f *fakeCardRepo) CountActive(_ context.Context, userID string) (int, error) {
	count := 0
	for _, card := range f.cards {
		if card.UserID == userID && card.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeCardRepo) CountLearned(_ context.Context, userID string) (int, error) {
	count := 0
	for _, card := range f.cards {
		if card.UserID == userID && card.DeletedAt == nil && card.IsLearned {
			count++
		}
	}
	return count, nil
}

func progressKey(cardID, userID, mode string) string {
	return cardID + "|" + userID + "|" + mode
}

type fakeProgressRepo struct {
	rows map[string]*models.CardProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: map[string]*models.CardProgress{}}
}

func (f *fakeProgressRepo) GetByKey(_ context.Context, cardID, userID, mode string) (*models.CardProgress, error) {
	return f.rows[progressKey(cardID, userID, mode)], nil
}

func (f *fakeProgressRepo) RecordCorrect(_ context.Context, cardID, userID, mode string, at time.Time) (*models.CardProgress, error) {
	key := progressKey(cardID, userID, mode)
	row, ok := f.rows[key]
	if !ok {
		row = &models.CardProgress{CardID: cardID, UserID: userID, Mode: mode}
		f.rows[key] = row
	}
	row.CorrectAnswers++
	row.LastAttempt = at
	clone := *row
	return &clone, nil
}

func (f *fakeProgressRepo) RecordIncorrect(_ context.Context, cardID, userID, mode string, at time.Time) (*models.CardProgress, error) {
	key := progressKey(cardID, userID, mode)
	row, ok := f.rows[key]
	if !ok {
		row = &models.CardProgress{CardID: cardID, UserID: userID, Mode: mode}
		f.rows[key] = row
	}
	row.CorrectAnswers = 0
	row.IncorrectAnswers++
	row.LastAttempt = at
	clone := *row
	return &clone, nil
}

func (f *fakeProgressRepo) SetStreaks(_ context.Context, userID, cardID string, correct, incorrect int) error {
	for _, row := range f.rows {
		if row.UserID == userID && row.CardID == cardID {
			row.CorrectAnswers = correct
			row.IncorrectAnswers = incorrect
		}
	}
	return nil
}

func (f *fakeProgressRepo) ListByUser(_ context.Context, userID string) ([]*models.CardProgress, error) {
	var out []*models.CardProgress
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAttempt.Before(out[j].LastAttempt) })
	return out, nil
}

func (f *fakeProgressRepo) ListByCard(_ context.Context, userID, cardID string) ([]*models.CardProgress, error) {
	var out []*models.CardProgress
	for _, row := range f.rows {
		if row.UserID == userID && row.CardID == cardID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, row := range f.rows {
		if row.UserID == userID {
			count++
		}
	}
	return count, nil
}

type fakeMissionRepo struct {
	catalog     []*models.Mission
	assignments map[string]*models.UserMission
}

func newFakeMissionRepo(catalog ...*models.Mission) *fakeMissionRepo {
	return &fakeMissionRepo{
		catalog:     catalog,
		assignments: map[string]*models.UserMission{},
	}
}

func assignmentKey(userID, missionID string) string {
	return userID + "|" + missionID
}

func (f *fakeMissionRepo) missionByID(missionID string) *models.Mission {
	for _, m := range f.catalog {
		if m.ID == missionID {
			return m
		}
	}
	return nil
}

func (f *fakeMissionRepo) ListActive(_ context.Context) ([]*models.Mission, error) {
	var out []*models.Mission
	for _, m := range f.catalog {
		if m.DeletedAt == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMissionRepo) GetByID(_ context.Context, missionID string) (*models.Mission, error) {
	if m := f.missionByID(missionID); m != nil && m.DeletedAt == nil {
		return m, nil
	}
	return nil, models.ErrMissionNotFound
}

func (f *fakeMissionRepo) CreateAssignment(_ context.Context, assignment *models.UserMission) error {
	key := assignmentKey(assignment.UserID, assignment.MissionID)
	if existing, ok := f.assignments[key]; ok {
		existing.Progress = 0
		existing.IsCompleted = false
		existing.CompletedAt = nil
		existing.IsSkipped = false
		existing.AssignedAt = assignment.AssignedAt
		return nil
	}
	assignment.Mission = f.missionByID(assignment.MissionID)
	f.assignments[key] = assignment
	return nil
}

func (f *fakeMissionRepo) GetAssignment(_ context.Context, userID, missionID string) (*models.UserMission, error) {
	assignment, ok := f.assignments[assignmentKey(userID, missionID)]
	if !ok {
		return nil, models.ErrMissionNotAssigned
	}
	clone := *assignment
	return &clone, nil
}

func (f *fakeMissionRepo) ListAssignedSince(_ context.Context, userID string, since time.Time) ([]*models.UserMission, error) {
	var out []*models.UserMission
	for _, a := range f.assignments {
		if a.UserID == userID && !a.AssignedAt.Before(since) && !a.IsSkipped {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out, nil
}

func (f *fakeMissionRepo) ListOpenAssignments(_ context.Context, userID string) ([]*models.UserMission, error) {
	var out []*models.UserMission
	for _, a := range f.assignments {
		if a.UserID == userID && !a.IsCompleted && !a.IsSkipped {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MissionID < out[j].MissionID })
	return out, nil
}

func (f *fakeMissionRepo) DeleteIncomplete(_ context.Context, userID string) error {
	for key, a := range f.assignments {
		if a.UserID == userID && !a.IsCompleted {
			delete(f.assignments, key)
		}
	}
	return nil
}

func (f *fakeMissionRepo) IncrementProgress(_ context.Context, userID, missionID string, delta, target int) (int, error) {
	assignment, ok := f.assignments[assignmentKey(userID, missionID)]
	if !ok {
		return 0, models.ErrMissionNotAssigned
	}
	if assignment.IsCompleted {
		return assignment.Progress, nil
	}
	assignment.Progress += delta
	if assignment.Progress > target {
		assignment.Progress = target
	}
	return assignment.Progress, nil
}

func (f *fakeMissionRepo) CompleteIfNotCompleted(_ context.Context, userID, missionID string, at time.Time) (bool, error) {
	assignment, ok := f.assignments[assignmentKey(userID, missionID)]
	if !ok {
		return false, models.ErrMissionNotAssigned
	}
	if assignment.IsCompleted {
		return false, nil
	}
	assignment.IsCompleted = true
	assignment.CompletedAt = &at
	return true, nil
}

type fakeAchievementRepo struct {
	catalog []*models.Achievement
	rows    map[string]*models.UserAchievement
}

func newFakeAchievementRepo(catalog ...*models.Achievement) *fakeAchievementRepo {
	return &fakeAchievementRepo{
		catalog: catalog,
		rows:    map[string]*models.UserAchievement{},
	}
}

func (f *fakeAchievementRepo) ListActive(_ context.Context) ([]*models.Achievement, error) {
	var out []*models.Achievement
	for _, a := range f.catalog {
		if a.DeletedAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAchievementRepo) ListUserAchievements(_ context.Context, userID string) ([]*models.UserAchievement, error) {
	var out []*models.UserAchievement
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAchievementRepo) UpsertUnlock(_ context.Context, userID, achievementID string, progress int64, at time.Time) (bool, error) {
	key := userID + "|" + achievementID
	row, ok := f.rows[key]
	if !ok {
		row = &models.UserAchievement{UserID: userID, AchievementID: achievementID}
		f.rows[key] = row
	}
	if progress > row.Progress {
		row.Progress = progress
	}
	if row.UnlockedAt != nil {
		return false, nil
	}
	// Stored timestamps lose sub-microsecond precision, as they do in
	// the real database.
	stored := at.Truncate(time.Microsecond)
	row.UnlockedAt = &stored
	return true, nil
}

func (f *fakeAchievementRepo) UpsertProgress(_ context.Context, userID, achievementID string, progress int64) error {
	key := userID + "|" + achievementID
	row, ok := f.rows[key]
	if !ok {
		row = &models.UserAchievement{UserID: userID, AchievementID: achievementID}
		f.rows[key] = row
	}
	if progress > row.Progress {
		row.Progress = progress
	}
	return nil
}

// int64ptr is a test helper for nullable thresholds.
func int64ptr(v int64) *int64 { return &v }

// timeAt builds a deterministic clock for a test.
func timeAt(year int, month time.Month, day, hour int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	}
}
