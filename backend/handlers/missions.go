package handlers

import (
	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/gofiber/fiber/v2"
)

type missionView struct {
	MissionID          string  `json:"mission_id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	TargetValue        int     `json:"target_value"`
	RewardXP           int64   `json:"reward_xp"`
	Progress           int     `json:"progress"`
	ProgressPercentage float64 `json:"progress_percentage"`
	IsCompleted        bool    `json:"is_completed"`
	CompletedAt        *string `json:"completed_at,omitempty"`
}

func missionViewOf(assignment *models.UserMission) missionView {
	view := missionView{
		MissionID:          assignment.MissionID,
		Progress:           assignment.Progress,
		ProgressPercentage: assignment.ProgressPercentage(),
		IsCompleted:        assignment.IsCompleted,
	}
	if assignment.Mission != nil {
		view.Name = assignment.Mission.Name
		view.Description = assignment.Mission.Description
		view.TargetValue = assignment.Mission.TargetValue
		view.RewardXP = assignment.Mission.RewardXP
	}
	if assignment.CompletedAt != nil {
		formatted := assignment.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
		view.CompletedAt = &formatted
	}
	return view
}

// DailyMissions returns today's mission assignments, rolling the day
// over first when needed.
func DailyMissions(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		assignments, err := webApp.MissionService.GetDailyMissions(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}

		views := make([]missionView, 0, len(assignments))
		for _, assignment := range assignments {
			views = append(views, missionViewOf(assignment))
		}
		return utils.SendSuccess(c, views, "")
	}
}

type missionProgressRequest struct {
	Increment int `json:"increment"`
}

// UpdateMissionProgress advances a mission by the given increment,
// defaulting to one step when the body omits it.
func UpdateMissionProgress(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}
		missionID := c.Params("id")

		req := missionProgressRequest{Increment: 1}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return utils.SendBadRequest(c, "Invalid request body", nil)
			}
		}
		if req.Increment < 0 {
			return utils.SendBadRequest(c, "Increment must be non-negative", nil)
		}
		if req.Increment == 0 {
			req.Increment = 1
		}

		assignment, completedNow, err := webApp.MissionService.AdvanceProgress(c.Context(), userID, missionID, req.Increment)
		if err != nil {
			return sendDomainError(c, err)
		}

		view := missionViewOf(assignment)
		message := "Progress updated"
		if completedNow {
			message = "Mission completed"
		}
		return utils.SendSuccess(c, view, message)
	}
}

// CompleteMission finishes a mission regardless of tracked progress.
func CompleteMission(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}
		missionID := c.Params("id")

		assignment, completedNow, err := webApp.MissionService.CompleteManually(c.Context(), userID, missionID)
		if err != nil {
			return sendDomainError(c, err)
		}

		message := "Mission already completed"
		if completedNow {
			message = "Mission completed"
		}
		return utils.SendSuccess(c, missionViewOf(assignment), message)
	}
}
