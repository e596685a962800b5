package model

// ServerInfo is the remote service's descriptor for this game server
type ServerInfo struct {
	ServerBundleID string `json:"serverbundle_id"`
}

// ServerBundle is the remote service's grouping of one or more game servers
// sharing ban/group/reward scope
type ServerBundle struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	SortID int    `json:"sort_id"`
}

// UserActivity is one online user's entry in the server heartbeat
type UserActivity struct {
	UserID UserID            `json:"user_id"`
	Extra  map[string]string `json:"extra"`
}

// Heartbeat is the periodic server status pushed to the remote service
type Heartbeat struct {
	UsersMax       int            `json:"users_max"`
	UsersCurrent   int            `json:"users_current"`
	UserActivities []UserActivity `json:"user_activities"`
	IsAlive        bool           `json:"is_alive"`
}
