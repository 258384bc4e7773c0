package models

import "errors"

// Domain sentinels shared between repositories, services and handlers.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCardNotFound       = errors.New("card not found or inaccessible")
	ErrStatsNotFound      = errors.New("user stats not found")
	ErrMissionNotFound    = errors.New("mission not found")
	ErrMissionNotAssigned = errors.New("mission not assigned to user")
	ErrCardsNotOwned      = errors.New("session contains cards not owned by user")
	ErrValidation         = errors.New("validation failed")
)
