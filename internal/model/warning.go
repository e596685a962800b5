package model

import "time"

// Warning is a remote warning record for a user
type Warning struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	User      *UserRef  `json:"user"`
	Creator   *UserRef  `json:"creator"`
	Active    bool      `json:"active"`
	CreatedOn time.Time `json:"created_on"`
}
