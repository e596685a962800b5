package model

import "fmt"

// GroupID is the remote service's identifier for a group definition
type GroupID string

// Group is a remote group definition. Refreshed on a schedule; never
// persisted beyond memory.
type Group struct {
	ID              GroupID        `json:"id"`
	Name            string         `json:"name"`
	PermissionLevel int            `json:"permission_level"`
	Color           string         `json:"color"`
	IsTeam          bool           `json:"is_team"`
	Mappings        []GroupMapping `json:"mappings"`
}

// GroupMapping binds a remote group to a local permission-group name,
// optionally scoped to a specific server bundle. An empty ServerBundleID
// means the mapping applies everywhere.
type GroupMapping struct {
	ID             string  `json:"id"`
	GroupID        GroupID `json:"group_id"`
	Name           string  `json:"name"`
	ServerBundleID string  `json:"serverbundle_id"`
}

// Membership is the remote record associating a user with a group
type Membership struct {
	ID string `json:"id"`
}

// GroupOperation distinguishes membership additions from removals in the
// backlog suppression set
type GroupOperation string

const (
	GroupAdd    GroupOperation = "add"
	GroupRemove GroupOperation = "remove"
)

// BacklogKey builds the suppression-set key for a reconciler-initiated group
// mutation, so the echoed host event can be recognised and swallowed.
func BacklogKey(player PlayerID, group string, op GroupOperation) string {
	return fmt.Sprintf("%s_%s_%s", player, group, op)
}
