package handlers

import (
	"strings"

	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/services"
	"github.com/gofiber/fiber/v2"
)

// SubmitSession applies a finished practice session.
func SubmitSession(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		var result services.SessionResult
		if err := c.BodyParser(&result); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		result.Mode = strings.ToUpper(strings.TrimSpace(result.Mode))

		summary, err := webApp.StudyService.SubmitSessionResult(c.Context(), userID, result)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, summary, "Session recorded")
	}
}

// StudyProgress returns per-card streak summaries.
func StudyProgress(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		progress, err := webApp.StudyService.GetStudyProgress(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, progress, "")
	}
}

// CardsToReview returns the cards due for review in a mode.
func CardsToReview(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		mode := strings.ToUpper(c.Query("mode", "FLASHCARDS"))
		limit := c.QueryInt("limit", 20)

		cards, err := webApp.StudyService.GetCardsToReview(c.Context(), userID, mode, limit)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, cards, "")
	}
}
