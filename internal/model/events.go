package model

import "strings"

// EventName identifies a game event a reward can trigger on
type EventName string

const (
	EventConnect    EventName = "CONNECT"
	EventSpawn      EventName = "SPAWN"
	EventDisconnect EventName = "DISCONNECT"
	EventDeath      EventName = "DEATH"

	// EventDirect and EventDisable are synthetic events for rewards that
	// fire without a specific game trigger
	EventDirect  EventName = "DIRECT"
	EventDisable EventName = "DISABLE"
)

// Direct reports whether the event is one of the synthetic trigger-less
// events. Only all-direct event sets may execute against every player's
// pending rewards at once.
func (e EventName) Direct() bool {
	s := string(e)
	return strings.Contains(s, string(EventDirect)) || strings.Contains(s, string(EventDisable))
}
