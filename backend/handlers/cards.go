package handlers

import (
	"io"

	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/services"
	"github.com/gofiber/fiber/v2"
)

const maxAudioUploadBytes = 10 << 20 // 10 MiB

// CreateCard adds a new card to the caller's deck.
func CreateCard(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		var req services.CreateCardRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}

		card, err := webApp.CardService.Create(c.Context(), userID, req)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendCreated(c, card, "Card created")
	}
}

// ListCards returns the caller's active cards.
func ListCards(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		cards, err := webApp.CardService.List(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, cards, "")
	}
}

// SearchCards fuzzy-matches the query against both sides of each card.
func SearchCards(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		cards, err := webApp.CardService.Search(c.Context(), userID, c.Query("q"))
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, cards, "")
	}
}

// ListDeletedCards returns soft-deleted cards available for restore.
func ListDeletedCards(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		cards, err := webApp.CardService.ListDeleted(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, cards, "")
	}
}

// GetCard returns a single card owned by the caller.
func GetCard(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		card, err := webApp.CardService.Get(c.Context(), userID, c.Params("id"))
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, card, "")
	}
}

// UpdateCard replaces the editable card fields.
func UpdateCard(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		var req services.UpdateCardRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}

		card, err := webApp.CardService.Update(c.Context(), userID, c.Params("id"), req)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, card, "Card updated")
	}
}

// DeleteCard soft-deletes a card. Progress history is kept so a restore
// picks up where the card left off.
func DeleteCard(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		if err := webApp.CardService.Delete(c.Context(), userID, c.Params("id")); err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, nil, "Card deleted")
	}
}

// RestoreCard brings a soft-deleted card back into the active deck.
func RestoreCard(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		card, err := webApp.CardService.Restore(c.Context(), userID, c.Params("id"))
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, card, "Card restored")
	}
}

type learnedRequest struct {
	Learned bool `json:"learned"`
}

// SetCardLearned manually marks a card learned or unlearned.
func SetCardLearned(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		var req learnedRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}

		card, err := webApp.CardService.SetLearnedStatus(c.Context(), userID, c.Params("id"), req.Learned)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, card, "Card updated")
	}
}

// UploadCardAudio accepts a multipart audio file and attaches its public
// URL to the card.
func UploadCardAudio(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("audio")
		if err != nil {
			return utils.SendBadRequest(c, "Missing audio file", nil)
		}
		if fileHeader.Size > maxAudioUploadBytes {
			return utils.SendBadRequest(c, "Audio file is too large", nil)
		}

		file, err := fileHeader.Open()
		if err != nil {
			return utils.SendBadRequest(c, "Could not read audio file", nil)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return utils.SendBadRequest(c, "Could not read audio file", nil)
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "audio/mpeg"
		}

		card, err := webApp.CardService.UploadAudio(c.Context(), userID, c.Params("id"), data, contentType)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, card, "Audio uploaded")
	}
}
