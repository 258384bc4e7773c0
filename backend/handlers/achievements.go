package handlers

import (
	"time"

	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/services"
	"github.com/gofiber/fiber/v2"
)

type achievementView struct {
	AchievementID string     `json:"achievement_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon,omitempty"`
	MetricKind    string     `json:"metric_kind,omitempty"`
	Threshold     *int64     `json:"threshold,omitempty"`
	IsSecret      bool       `json:"is_secret"`
	Unlocked      bool       `json:"unlocked"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
	Progress      int64      `json:"progress"`
}

func achievementViewOf(status *services.AchievementStatus) achievementView {
	return achievementView{
		AchievementID: status.Achievement.ID,
		Name:          status.Achievement.Name,
		Description:   status.Achievement.Description,
		Icon:          status.Achievement.Icon,
		MetricKind:    status.Achievement.MetricKind,
		Threshold:     status.Achievement.Threshold,
		IsSecret:      status.Achievement.IsSecret,
		Unlocked:      status.Unlocked,
		UnlockedAt:    status.UnlockedAt,
		Progress:      status.Progress,
	}
}

// ListAchievements returns the catalog with the caller's unlock state.
func ListAchievements(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		statuses, err := webApp.AchievementService.ListWithStatus(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}

		views := make([]achievementView, 0, len(statuses))
		for _, status := range statuses {
			views = append(views, achievementViewOf(status))
		}
		return utils.SendSuccess(c, views, "")
	}
}

// CheckAchievements re-evaluates every threshold achievement and returns
// the ones that unlocked just now.
func CheckAchievements(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		unlocked, err := webApp.AchievementService.EvaluateAndUnlock(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}

		message := "No new achievements"
		if len(unlocked) > 0 {
			message = "New achievements unlocked"
		}
		return utils.SendSuccess(c, fiber.Map{
			"unlocked": unlocked,
			"count":    len(unlocked),
		}, message)
	}
}
