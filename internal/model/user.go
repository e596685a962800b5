package model

// PlayerID is the local platform identifier for a player (e.g. a SteamID64).
// It is the key the game server knows players by.
type PlayerID string

// UserID is the remote service's identifier for a user record.
type UserID string

// PlatformType tags which identity platform a user belongs to
const PlatformType = "STEAM"

// User is the remote service's record for a player.
// Cached for the lifetime of the player's connection and discarded on
// disconnect, forcing a re-fetch next session.
type User struct {
	ID           UserID            `json:"id"`
	Type         string            `json:"type"`
	Identifier   PlayerID          `json:"identifier"`
	RegisteredOn string            `json:"registered_on"`
	Username     string            `json:"username"`
	Avatar       string            `json:"avatar"`
	Admin        bool              `json:"admin"`
	Attributes   map[string]string `json:"attributes"`
}

// UserRef is the abbreviated user shape embedded in other records
type UserRef struct {
	ID         UserID   `json:"id"`
	Username   string   `json:"username"`
	Type       string   `json:"type"`
	Identifier PlayerID `json:"identifier"`
	Avatar     string   `json:"avatar"`
}
