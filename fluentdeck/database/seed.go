package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
)

// InitializeMissionData upserts the daily mission catalog. The seed is
// idempotent so the server can run it on every start.
func (db *DB) InitializeMissionData(ctx context.Context) error {
	type missionDef struct {
		ID          string
		Name        string
		Description string
		MetricKind  string
		TargetValue int
		RewardXP    int64
	}

	missions := []missionDef{
		{"add-10-cards", "Добавить 10 слов", "Добавьте 10 новых карточек в словарь", models.MetricCardsAdded, 10, 50},
		{"learn-5-words", "Выучить 5 слов", "Ответьте правильно на 5 слов в любом режиме", models.MetricCorrectAnswers, 5, 30},
		{"quiz-3-sessions", "Завершить 3 теста", "Завершите 3 сессии в режиме QUIZ", models.MetricQuizSessions, 3, 40},
		{"lightning-10-rounds", "Молния: 10 раундов", "Играйте 10 раундов в режиме Lightning", models.MetricLightningSessions, 10, 60},
		{"study-30-minutes", "Изучить 30 минут", "Проведите 30 минут в изучении слов", models.MetricStudyMinutes, 30, 45},
		{"earn-100-xp", "Заработать 100 XP", "Наберите 100 очков опыта за день", models.MetricXPEarned, 100, 50},
		{"add-cards-with-audio", "Добавить 5 слов с аудио", "Добавьте 5 карточек с аудио-произношением", models.MetricAudioCardsAdded, 5, 40},
		{"repeat-low-progress", "Повторить слабые слова", "Повторите 15 слов с низким прогрессом", models.MetricCardsReviewed, 15, 55},
		{"complete-5-lightning", "Молния: 5 раундов", "Завершите 5 раундов в режиме Lightning", models.MetricLightningSessions, 5, 35},
		{"repeat-20-cards", "Повторить 20 слов", "Повторите 20 слов для закрепления", models.MetricCardsReviewed, 20, 70},
	}

	insertSQL := `
        INSERT INTO missions (
            id, name, description, metric_kind, target_value, reward_xp,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
        ) ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            metric_kind = EXCLUDED.metric_kind,
            target_value = EXCLUDED.target_value,
            reward_xp = EXCLUDED.reward_xp,
            updated_at = CURRENT_TIMESTAMP;
    `

	for _, m := range missions {
		if _, err := db.ExecWithLog(ctx, insertSQL,
			m.ID, m.Name, m.Description, m.MetricKind, m.TargetValue, m.RewardXP,
		); err != nil {
			return fmt.Errorf("failed to upsert mission %s: %w", m.ID, err)
		}
	}

	slog.Info("Mission catalog initialized", slog.Int("count", len(missions)))
	return nil
}

// InitializeAchievementData upserts the achievement catalog.
func (db *DB) InitializeAchievementData(ctx context.Context) error {
	type achievementDef struct {
		ID          string
		Name        string
		Description string
		Icon        string
		MetricKind  string
		Threshold   int64
		Category    string
	}

	achievements := []achievementDef{
		// Cards
		{"first-card", "Первая карточка", "Создайте свою первую карточку слова.", "📝", models.MetricWordsAdded, 1, "Карточки"},
		{"dictionary-builder", "Создатель словаря", "Добавьте 10 карточек.", "📚", models.MetricWordsAdded, 10, "Карточки"},
		{"dictionary-master", "Мастер словаря", "Добавьте 50 карточек.", "📖", models.MetricWordsAdded, 50, "Карточки"},

		// Learning
		{"first-step", "Первый шаг", "Выучите первое слово.", "👶", models.MetricWordsLearned, 1, "Изучение"},
		{"apprentice", "Ученик", "Выучите 10 слов.", "🎓", models.MetricWordsLearned, 10, "Изучение"},
		{"word-master", "Мастер слов", "Выучите 50 слов.", "🧠", models.MetricWordsLearned, 50, "Изучение"},
		{"linguist", "Лингвист", "Выучите 100 слов.", "🌍", models.MetricWordsLearned, 100, "Изучение"},

		// XP
		{"first-xp", "Первый опыт", "Заработайте 10 XP.", "⭐", models.MetricXPEarned, 10, "XP"},
		{"speed-learner", "Скоростной ученик", "Наберите 100 XP.", "⚡", models.MetricXPEarned, 100, "XP"},
		{"experienced", "Опытный", "Наберите 500 XP.", "🔥", models.MetricXPEarned, 500, "XP"},
		{"xp-master", "Мастер XP", "Наберите 1000 XP.", "💎", models.MetricXPEarned, 1000, "XP"},

		// Levels
		{"level-2", "Уровень 2", "Достигните 2 уровня.", "⬆️", models.MetricLevelReached, 2, "Уровни"},
		{"level-5", "Уровень 5", "Достигните 5 уровня.", "⭐", models.MetricLevelReached, 5, "Уровни"},
		{"level-10", "Уровень 10", "Достигните 10 уровня.", "🏆", models.MetricLevelReached, 10, "Уровни"},

		// Sessions
		{"first-session", "Первая сессия", "Завершите 1 сессию изучения.", "🎯", models.MetricSessionsCompleted, 1, "Сессии"},
		{"regular-student", "Регулярный ученик", "Завершите 10 сессий изучения.", "📅", models.MetricSessionsCompleted, 10, "Сессии"},
		{"marathoner", "Марафонец", "Завершите 50 сессий изучения.", "🏃", models.MetricSessionsCompleted, 50, "Сессии"},

		// Time (thresholds in seconds)
		{"first-minute", "Первая минута", "Проведите 1 минуту в изучении.", "⏱️", models.MetricTimeSpent, 60, "Время"},
		{"clockmaker", "Часовщик", "Проведите 1 час в изучении.", "🕐", models.MetricTimeSpent, 3600, "Время"},
		{"dedicated", "Дедикейт", "Проведите 10 часов в изучении.", "⏳", models.MetricTimeSpent, 36000, "Время"},
	}

	insertSQL := `
        INSERT INTO achievements (
            id, name, description, icon, metric_kind, threshold, category, is_secret,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, false,
            CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
        ) ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            icon = EXCLUDED.icon,
            metric_kind = EXCLUDED.metric_kind,
            threshold = EXCLUDED.threshold,
            category = EXCLUDED.category,
            updated_at = CURRENT_TIMESTAMP;
    `

	for _, a := range achievements {
		if _, err := db.ExecWithLog(ctx, insertSQL,
			a.ID, a.Name, a.Description, a.Icon, a.MetricKind, a.Threshold, a.Category,
		); err != nil {
			return fmt.Errorf("failed to upsert achievement %s: %w", a.ID, err)
		}
	}

	slog.Info("Achievement catalog initialized", slog.Int("count", len(achievements)))
	return nil
}
