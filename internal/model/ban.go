package model

import "time"

// BanID is the remote service's identifier for a ban record
type BanID string

// Ban is a remote ban record. Either side (local ban action or remote ban
// action) can create one; the reconciler only observes and mutates both sides
// to match.
type Ban struct {
	ID BanID `json:"id"`

	// Length is the ban duration in seconds; nil means permanent
	Length *int64 `json:"length"`

	Reason    string     `json:"reason"`
	User      *UserRef   `json:"user"`
	Creator   *UserRef   `json:"creator"`
	Status    string     `json:"status"`
	CreatedOn time.Time  `json:"created_on"`
	EndsOn    *time.Time `json:"ends_on"`
	Active    bool       `json:"active"`
}

// Permanent reports whether the ban has no end time
func (b *Ban) Permanent() bool {
	return b.EndsOn == nil
}

// Remaining returns the time left on the ban at the given instant, floored at
// zero. A permanent ban returns 0; callers must check Permanent first.
func (b *Ban) Remaining(now time.Time) time.Duration {
	if b.EndsOn == nil {
		return 0
	}
	d := b.EndsOn.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
