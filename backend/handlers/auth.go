package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *userProfile `json:"user"`
}

type userProfile struct {
	ID                   string `json:"id"`
	Email                string `json:"email"`
	Username             string `json:"username"`
	CurrentLanguageLevel string `json:"current_language_level"`
}

func profileOf(user *models.User) *userProfile {
	return &userProfile{
		ID:                   user.ID,
		Email:                user.Email,
		Username:             user.Username,
		CurrentLanguageLevel: user.CurrentLanguageLevel,
	}
}

// Register creates the account together with its stats row, so every
// later ledger update can assume the row exists.
func Register(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Username = strings.TrimSpace(req.Username)
		if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
			return utils.SendBadRequest(c, "Email, username and a password of at least 8 characters are required", nil)
		}

		if _, err := webApp.Users.GetByEmail(c.Context(), req.Email); err == nil {
			return utils.SendConflict(c, "Email is already registered", nil)
		} else if !errors.Is(err, models.ErrUserNotFound) {
			return sendDomainError(c, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to create account")
		}

		user := &models.User{
			ID:                   uuid.NewString(),
			Email:                req.Email,
			Username:             req.Username,
			PasswordHash:         string(hash),
			CurrentLanguageLevel: models.LanguageLevelA0,
		}
		if err := webApp.Users.Create(c.Context(), user); err != nil {
			return sendDomainError(c, err)
		}
		if err := webApp.StatsService.InitializeForUser(c.Context(), user.ID); err != nil {
			return sendDomainError(c, err)
		}

		token, err := webApp.Tokens.GenerateToken(user.ID, user.Email)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to issue token")
		}

		slog.Info("User registered",
			slog.String("type", "http"),
			slog.String("user_id", user.ID),
		)
		return utils.SendCreated(c, authResponse{Token: token, User: profileOf(user)}, "Account created")
	}
}

// Login verifies credentials and issues a token.
func Login(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}

		user, err := webApp.Users.GetByEmail(c.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				return utils.SendUnauthorized(c, "Invalid email or password")
			}
			return sendDomainError(c, err)
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			return utils.SendUnauthorized(c, "Invalid email or password")
		}

		token, err := webApp.Tokens.GenerateToken(user.ID, user.Email)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to issue token")
		}
		return utils.SendSuccess(c, authResponse{Token: token, User: profileOf(user)}, "Logged in")
	}
}

// Me returns the authenticated user's profile.
func Me(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := requireUser(c)
		if err != nil {
			return err
		}
		user, err := webApp.Users.GetByID(c.Context(), userID)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, profileOf(user), "")
	}
}
