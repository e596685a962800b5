// Package fakehost is a scripted in-memory implementation of host.Host.
// It backs the service and engine tests and the run command's development
// mode, and mirrors the echo behavior of real hosts: mutating a
// ban or a group membership through the API fires the corresponding
// lifecycle event, exactly as an externally-triggered change would.
package fakehost

import (
	"sync"
	"time"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
)

// Host is a fake game server
type Host struct {
	mu sync.Mutex

	maxPlayers int
	players    map[model.PlayerID]host.Player
	bans       map[model.PlayerID]host.BannedPlayer
	groups     map[string]groupDef
	members    map[model.PlayerID]map[string]struct{}

	events host.Events

	// Recorded side effects, for assertions
	Commands   []string
	Broadcasts []string
	Messages   map[model.PlayerID][]string
}

type groupDef struct {
	title string
	level int
}

// New creates an empty fake host
func New() *Host {
	return &Host{
		maxPlayers: 100,
		players:    make(map[model.PlayerID]host.Player),
		bans:       make(map[model.PlayerID]host.BannedPlayer),
		groups:     make(map[string]groupDef),
		members:    make(map[model.PlayerID]map[string]struct{}),
		Messages:   make(map[model.PlayerID][]string),
	}
}

var _ host.Host = (*Host)(nil)

// SetEvents registers the lifecycle callbacks
func (h *Host) SetEvents(ev host.Events) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = ev
}

// Connect adds a player and fires the connect event
func (h *Host) Connect(p host.Player) {
	h.mu.Lock()
	h.players[p.ID] = p
	ev := h.events.OnConnect
	h.mu.Unlock()

	if ev != nil {
		ev(p)
	}
}

// Disconnect removes a player and fires the disconnect event
func (h *Host) Disconnect(id model.PlayerID) {
	h.mu.Lock()
	p, ok := h.players[id]
	delete(h.players, id)
	ev := h.events.OnDisconnect
	h.mu.Unlock()

	if ok && ev != nil {
		ev(p)
	}
}

// Respawn fires the respawn event for a connected player
func (h *Host) Respawn(id model.PlayerID) {
	h.mu.Lock()
	p, ok := h.players[id]
	ev := h.events.OnRespawn
	h.mu.Unlock()

	if ok && ev != nil {
		ev(p)
	}
}

// Kill fires the death event for a connected player
func (h *Host) Kill(id model.PlayerID) {
	h.mu.Lock()
	p, ok := h.players[id]
	ev := h.events.OnDeath
	h.mu.Unlock()

	if ok && ev != nil {
		ev(p)
	}
}

func (h *Host) ConnectedPlayers() []host.Player {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Player, 0, len(h.players))
	for _, p := range h.players {
		out = append(out, p)
	}
	return out
}

func (h *Host) FindPlayer(id model.PlayerID) (host.Player, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[id]
	return p, ok
}

func (h *Host) MaxPlayers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxPlayers
}

func (h *Host) PlayerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.players)
}

// SetMaxPlayers overrides the reported player cap
func (h *Host) SetMaxPlayers(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxPlayers = n
}

// SeedBan inserts a ban without firing events, as if it predated the agent
func (h *Host) SeedBan(b host.BannedPlayer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bans[b.ID] = b
}

func (h *Host) BannedPlayers() []host.BannedPlayer {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.BannedPlayer, 0, len(h.bans))
	for _, b := range h.bans {
		out = append(out, b)
	}
	return out
}

func (h *Host) IsBanned(id model.PlayerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.bans[id]
	return ok
}

func (h *Host) Ban(id model.PlayerID, reason string, d time.Duration) error {
	h.mu.Lock()
	b := host.BannedPlayer{ID: id, Reason: reason}
	if d > 0 {
		t := time.Now().Add(d)
		b.ExpiresAt = &t
	}
	h.bans[id] = b
	ev := h.events.OnBanned
	h.mu.Unlock()

	if ev != nil {
		ev(id, reason)
	}
	return nil
}

func (h *Host) Unban(id model.PlayerID) error {
	h.mu.Lock()
	delete(h.bans, id)
	ev := h.events.OnUnbanned
	h.mu.Unlock()

	if ev != nil {
		ev(id)
	}
	return nil
}

func (h *Host) Broadcast(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Broadcasts = append(h.Broadcasts, message)
}

func (h *Host) MessagePlayer(id model.PlayerID, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.players[id]; !ok {
		return model.ErrPlayerNotFound
	}
	h.Messages[id] = append(h.Messages[id], message)
	return nil
}

func (h *Host) RunCommand(command string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Commands = append(h.Commands, command)
	return nil
}

func (h *Host) GroupExists(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.groups[name]
	return ok
}

func (h *Host) CreateGroup(name, title string, permissionLevel int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.groups[name] = groupDef{title: title, level: permissionLevel}
	return nil
}

func (h *Host) PlayerGroups(id model.PlayerID) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.members[id]))
	for g := range h.members[id] {
		out = append(out, g)
	}
	return out
}

func (h *Host) PlayerInGroup(id model.PlayerID, group string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.members[id][group]
	return ok
}

func (h *Host) AddPlayerToGroup(id model.PlayerID, group string) error {
	h.mu.Lock()
	if h.members[id] == nil {
		h.members[id] = make(map[string]struct{})
	}
	h.members[id][group] = struct{}{}
	ev := h.events.OnGroupAdded
	h.mu.Unlock()

	if ev != nil {
		ev(id, group)
	}
	return nil
}

func (h *Host) RemovePlayerFromGroup(id model.PlayerID, group string) error {
	h.mu.Lock()
	delete(h.members[id], group)
	ev := h.events.OnGroupRemoved
	h.mu.Unlock()

	if ev != nil {
		ev(id, group)
	}
	return nil
}
