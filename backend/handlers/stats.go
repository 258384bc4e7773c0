package handlers

import (
	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/gofiber/fiber/v2"
)

type statsView struct {
	TotalXP           int64  `json:"total_xp"`
	CurrentLevel      int    `json:"current_level"`
	XPToNextLevel     int64  `json:"xp_to_next_level"`
	TotalWords        int    `json:"total_words"`
	LearnedWords      int    `json:"learned_words"`
	TimeSpentSec      int64  `json:"time_spent_sec"`
	CardsAddedToday   int    `json:"cards_added_today"`
	WordsLearnedToday int    `json:"words_learned_today"`
	WordsViewedToday  int    `json:"words_viewed_today"`
	TimeSpentTodaySec int64  `json:"time_spent_today_sec"`
	LanguageLevel     string `json:"language_level"`
}

// GetStats returns the caller's stats snapshot with daily counters
// rolled over when a new day has started.
func GetStats(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		if _, err := webApp.Rollover.Ensure(c.Context(), userID); err != nil {
			return sendDomainError(c, err)
		}

		stats, err := webApp.StatsService.GetSnapshot(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}

		user, err := webApp.Users.GetByID(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}

		view := statsViewOf(stats, user)
		view.XPToNextLevel = webApp.StatsService.XPToNextLevel(stats.TotalXP)
		return utils.SendSuccess(c, view, "")
	}
}

func statsViewOf(stats *models.UserStats, user *models.User) statsView {
	return statsView{
		TotalXP:           stats.TotalXP,
		CurrentLevel:      stats.CurrentLevel,
		TotalWords:        stats.TotalWords,
		LearnedWords:      stats.LearnedWords,
		TimeSpentSec:      stats.TimeSpentSec,
		CardsAddedToday:   stats.CardsAddedToday,
		WordsLearnedToday: stats.WordsLearnedToday,
		WordsViewedToday:  stats.WordsViewedToday,
		TimeSpentTodaySec: stats.TimeSpentTodaySec,
		LanguageLevel:     user.CurrentLanguageLevel,
	}
}
