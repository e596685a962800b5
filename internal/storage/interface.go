package storage

import (
	"context"

	"github.com/hubsync/hubsync/internal/model"
)

// Store persists the two small state documents that must survive restarts:
// the executed-but-unconfirmed reward ids (the source of truth for "already
// executed locally, not yet confirmed remotely") and the cached-bans set the
// ban reconciler uses to tell self-caused changes from external ones.
//
// Loads of absent documents return empty collections and no error; only an
// unreadable or undecodable document is an error, and callers fall back to
// empty defaults rather than halting startup.
type Store interface {
	SaveExecutedRewards(ctx context.Context, ids []model.RewardID) error
	LoadExecutedRewards(ctx context.Context) ([]model.RewardID, error)

	SaveCachedBans(ctx context.Context, ids []model.PlayerID) error
	LoadCachedBans(ctx context.Context) ([]model.PlayerID, error)
}
