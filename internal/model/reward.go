package model

// RewardID is the remote identifier of an applied reward grant
type RewardID string

// RewardKind is the tagged kind of a reward's action
type RewardKind string

const (
	// RewardCommand runs one or more server console commands
	RewardCommand RewardKind = "COMMAND"
)

// Supported reports whether this kind has a local execution handler.
// Unsupported kinds are logged and left pending, never marked executed.
func (k RewardKind) Supported() bool {
	return k == RewardCommand
}

// Reward is the definition half of a reward grant
type Reward struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        RewardKind        `json:"type"`
	Data        map[string]string `json:"data"`
	Order       int               `json:"order"`
	Once        bool              `json:"once"`
	OnceFromAll bool              `json:"once_from_all"`
	OnEvent     EventName         `json:"on_event"`
	Bundle      *ServerBundle     `json:"serverbundle"`
}

// AppliedReward is a remote-side record granting a specific reward instance
// to a specific user, pending local execution. Mutations are append-only
// (server ids added to ExecutedOn), never rolled back.
type AppliedReward struct {
	ID              RewardID       `json:"id"`
	Active          bool           `json:"active"`
	Reward          Reward         `json:"reward"`
	User            *UserRef       `json:"user"`
	AppliedPacketID string         `json:"applied_packet_id"`
	AppliedPacket   *AppliedPacket `json:"applied_packet"`
	Status          string         `json:"status"`
	ExecutedOn      []string       `json:"executed_on"`
}

// AppliedPacket carries purchase context for placeholder substitution
type AppliedPacket struct {
	ID       string    `json:"id"`
	Purchase *Purchase `json:"purchase"`
	Packet   Packet    `json:"packet"`
}

// Purchase is the monetary side of an applied packet
type Purchase struct {
	ID         string `json:"id"`
	AmountText string `json:"amount_text"`
}

// Packet names the store packet a reward came from
type Packet struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
