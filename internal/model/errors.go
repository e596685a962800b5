package model

import "errors"

// Common errors used across the application
var (
	// Remote resource errors
	ErrUserNotFound       = errors.New("user not found on remote service")
	ErrDefinitionNotFound = errors.New("attribute definition not found on remote service")

	// Host errors
	ErrPlayerNotFound = errors.New("player not found on game server")

	// Group errors
	ErrGroupNotMapped = errors.New("no group mapping for local group name")

	// Reward errors
	ErrUnsupportedRewardKind = errors.New("no implementation for reward kind")
)
