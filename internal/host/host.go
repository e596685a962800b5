// Package host defines the capabilities the sync engine consumes from the
// game-server runtime it is attached to. A production deployment implements
// Host over whatever control channel the title exposes; tests and the
// development mode use fakehost.
package host

import (
	"time"

	"github.com/hubsync/hubsync/internal/model"
)

// Player is a player as the game server knows them
type Player struct {
	ID   model.PlayerID
	Name string
}

// BannedPlayer is one entry of the game server's ban list
type BannedPlayer struct {
	ID     model.PlayerID
	Reason string

	// ExpiresAt is nil for permanent bans
	ExpiresAt *time.Time
}

// Events are the lifecycle callbacks the engine registers with the host.
// The host fires them from its own goroutines; handlers must be safe to call
// concurrently with the reconciliation cycle.
type Events struct {
	OnConnect      func(Player)
	OnDisconnect   func(Player)
	OnRespawn      func(Player)
	OnDeath        func(Player)
	OnBanned       func(id model.PlayerID, reason string)
	OnUnbanned     func(id model.PlayerID)
	OnGroupAdded   func(id model.PlayerID, group string)
	OnGroupRemoved func(id model.PlayerID, group string)
}

// Host is the game-server runtime the engine runs against
type Host interface {
	// Players
	ConnectedPlayers() []Player
	FindPlayer(id model.PlayerID) (Player, bool)
	MaxPlayers() int
	PlayerCount() int

	// Bans. A zero duration means permanent.
	BannedPlayers() []BannedPlayer
	IsBanned(id model.PlayerID) bool
	Ban(id model.PlayerID, reason string, d time.Duration) error
	Unban(id model.PlayerID) error

	// Chat and console
	Broadcast(message string)
	MessagePlayer(id model.PlayerID, message string) error
	RunCommand(command string) error

	// Permission groups
	GroupExists(name string) bool
	CreateGroup(name, title string, permissionLevel int) error
	PlayerGroups(id model.PlayerID) []string
	PlayerInGroup(id model.PlayerID, group string) bool
	AddPlayerToGroup(id model.PlayerID, group string) error
	RemovePlayerFromGroup(id model.PlayerID, group string) error

	// SetEvents registers the engine's lifecycle callbacks
	SetEvents(Events)
}
