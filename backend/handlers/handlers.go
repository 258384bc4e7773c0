package handlers

import (
	"errors"

	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/auth"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
	"github.com/fluentdeck/fluentdeck/fluentdeck/services"
	"github.com/gofiber/fiber/v2"
)

// WebApp bundles every dependency the handlers need.
type WebApp struct {
	DB     *database.DB
	Tokens *auth.TokenManager

	Users repositories.UserRepository

	StatsService       *services.StatsService
	ProgressService    *services.ProgressService
	StudyService       *services.StudyService
	MissionService     *services.MissionService
	AchievementService *services.AchievementService
	CardService        *services.CardService
	Rollover           *services.DailyRollover

	Version string
}

// sendDomainError maps domain sentinels onto HTTP statuses.
func sendDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrMissionNotFound),
		errors.Is(err, models.ErrMissionNotAssigned),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrStatsNotFound):
		return utils.SendNotFound(c, err.Error())
	case errors.Is(err, models.ErrCardsNotOwned):
		return utils.SendForbidden(c, err.Error())
	case errors.Is(err, models.ErrValidation):
		return utils.SendBadRequest(c, err.Error(), nil)
	default:
		return utils.SendInternalServerError(c, "Something went wrong")
	}
}

// requireUser pulls the authenticated user id or writes a 401.
func requireUser(c *fiber.Ctx) (string, error) {
	userID, ok := utils.UserID(c)
	if !ok {
		return "", utils.SendUnauthorized(c, "Authentication required")
	}
	return userID, nil
}
