// Package bans keeps the game server's ban list and the remote service's
// active bans converged. Both sides are independently mutable; the
// reconciler diffs them each cycle and uses a persisted cache of
// believed-synced ids to tell "this side just changed" apart from "the other
// side is missing an update", which is what prevents a lifted ban from being
// endlessly re-propagated.
package bans

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hubsync/hubsync/internal/dependencies/clock"
	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/services/directory"
	"github.com/hubsync/hubsync/internal/storage"
)

// Reconciler drives two-way convergence of ban state
type Reconciler struct {
	remote    *remote.Client
	host      host.Host
	store     storage.Store
	directory *directory.Service
	clock     clock.Clock
	logger    *slog.Logger

	mu     sync.Mutex
	cached map[model.PlayerID]struct{}
}

// New creates a new ban reconciler
func New(
	remoteClient *remote.Client,
	h host.Host,
	store storage.Store,
	dir *directory.Service,
	clk clock.Clock,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		remote:    remoteClient,
		host:      h,
		store:     store,
		directory: dir,
		clock:     clk,
		logger:    logger,
		cached:    make(map[model.PlayerID]struct{}),
	}
}

// Load restores the cached-bans set from storage. An unreadable document is
// logged and replaced with an empty set rather than failing startup.
func (r *Reconciler) Load(ctx context.Context) {
	ids, err := r.store.LoadCachedBans(ctx)
	if err != nil {
		r.logger.Error("failed to load cached bans, starting empty",
			slog.String("error", err.Error()),
		)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.cached[id] = struct{}{}
	}
}

// Reconcile converges the host ban list and the given remote active bans.
// Running it twice with unchanged inputs is a no-op the second time: every
// transition it applies is recorded in the cached set first, so re-applying
// is suppressed.
func (r *Reconciler) Reconcile(ctx context.Context, remoteBans map[model.PlayerID][]model.Ban) {
	local := make(map[model.PlayerID]host.BannedPlayer)
	for _, b := range r.host.BannedPlayers() {
		local[b.ID] = b
	}

	// Local bans the remote service does not have
	for id, lb := range local {
		if _, ok := remoteBans[id]; ok {
			continue
		}

		if r.cachedHas(id) {
			// Unbanned on the remote side
			r.logger.Info("lifting game ban, unbanned remotely",
				slog.String("player_id", string(id)),
			)
			if err := r.host.Unban(id); err != nil {
				r.logger.Error("failed to lift game ban",
					slog.String("player_id", string(id)),
					slog.String("error", err.Error()),
				)
				continue
			}
			r.cachedRemove(ctx, id)
		} else {
			// New local ban, push it to the remote service
			r.logger.Info("pushing game ban to remote service",
				slog.String("player_id", string(id)),
			)
			if err := r.createRemoteBan(ctx, id, lb.Reason, lb.ExpiresAt); err != nil {
				r.logger.Error("failed to push ban to remote service",
					slog.String("player_id", string(id)),
					slog.String("error", err.Error()),
				)
				continue
			}
			r.cachedAdd(ctx, id)
		}
	}

	// Remote bans the game server does not have
	for id, bans := range remoteBans {
		if _, ok := local[id]; ok {
			// Present on both sides
			r.cachedAdd(ctx, id)
			continue
		}

		if r.cachedHas(id) {
			// Unbanned on the game server
			r.logger.Info("lifting remote ban, unbanned on game server",
				slog.String("player_id", string(id)),
			)
			if err := r.removeRemoteBan(ctx, id); err != nil {
				r.logger.Error("failed to lift remote ban",
					slog.String("player_id", string(id)),
					slog.String("error", err.Error()),
				)
				continue
			}
			r.cachedRemove(ctx, id)
		} else {
			// New remote ban, apply it locally
			if len(bans) == 0 {
				continue
			}
			r.logger.Info("applying remote ban to game server",
				slog.String("player_id", string(id)),
			)
			if err := r.applyLocalBan(id, bans[0]); err != nil {
				r.logger.Error("failed to apply remote ban",
					slog.String("player_id", string(id)),
					slog.String("error", err.Error()),
				)
				continue
			}
			r.cachedAdd(ctx, id)
		}
	}
}

// HandleHostBan is the immediate path for a locally-issued ban: if the
// remote service has no active ban for the player yet, one is created and
// the cache updated optimistically, skipping a cycle of latency.
func (r *Reconciler) HandleHostBan(ctx context.Context, id model.PlayerID, reason string) {
	remoteBans, err := r.remote.FetchBans(ctx)
	if err != nil {
		r.logger.Error("failed to fetch remote bans",
			slog.String("error", err.Error()),
		)
		return
	}

	if _, ok := remoteBans[id]; ok {
		r.cachedAdd(ctx, id)
		return
	}

	r.logger.Info("pushing game ban to remote service",
		slog.String("player_id", string(id)),
	)

	var expiry *time.Time
	for _, b := range r.host.BannedPlayers() {
		if b.ID == id {
			expiry = b.ExpiresAt
			break
		}
	}
	if err := r.createRemoteBan(ctx, id, reason, expiry); err != nil {
		r.logger.Error("failed to push ban to remote service",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
		return
	}
	r.cachedAdd(ctx, id)
}

// HandleHostUnban is the immediate path for a locally-lifted ban
func (r *Reconciler) HandleHostUnban(ctx context.Context, id model.PlayerID) {
	remoteBans, err := r.remote.FetchBans(ctx)
	if err != nil {
		r.logger.Error("failed to fetch remote bans",
			slog.String("error", err.Error()),
		)
		return
	}

	if _, ok := remoteBans[id]; !ok {
		r.cachedRemove(ctx, id)
		return
	}

	r.logger.Info("lifting remote ban, unbanned on game server",
		slog.String("player_id", string(id)),
	)
	if err := r.removeRemoteBan(ctx, id); err != nil {
		r.logger.Error("failed to lift remote ban",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
		return
	}
	r.cachedRemove(ctx, id)
}

func (r *Reconciler) createRemoteBan(ctx context.Context, id model.PlayerID, reason string, expiresAt *time.Time) error {
	user, err := r.directory.GetOrCreate(ctx, id)
	if err != nil {
		return err
	}

	var length *int64
	if expiresAt != nil {
		secs := int64(expiresAt.Sub(r.clock.Now()) / time.Second)
		if secs < 0 {
			secs = 0
		}
		length = &secs
	}

	_, err = r.remote.CreateBan(ctx, user.ID, reason, length, r.clock.Now())
	return err
}

func (r *Reconciler) removeRemoteBan(ctx context.Context, id model.PlayerID) error {
	user, err := r.directory.GetOrCreate(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.remote.UnbanUser(ctx, user.ID)
	return err
}

// applyLocalBan bans a player on the game server from a remote ban record.
// A nil end time means permanent; otherwise the remaining duration is taken
// relative to now, floored at zero.
func (r *Reconciler) applyLocalBan(id model.PlayerID, ban model.Ban) error {
	if ban.Permanent() {
		return r.host.Ban(id, ban.Reason, 0)
	}
	return r.host.Ban(id, ban.Reason, ban.Remaining(r.clock.Now()))
}

// CachedBans returns the current believed-synced set, for tests and status
func (r *Reconciler) CachedBans() []model.PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.PlayerID, 0, len(r.cached))
	for id := range r.cached {
		out = append(out, id)
	}
	return out
}

func (r *Reconciler) cachedHas(id model.PlayerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cached[id]
	return ok
}

func (r *Reconciler) cachedAdd(ctx context.Context, id model.PlayerID) {
	r.mu.Lock()
	if _, ok := r.cached[id]; ok {
		r.mu.Unlock()
		return
	}
	r.cached[id] = struct{}{}
	ids := r.snapshotLocked()
	r.mu.Unlock()

	r.persist(ctx, ids)
}

func (r *Reconciler) cachedRemove(ctx context.Context, id model.PlayerID) {
	r.mu.Lock()
	if _, ok := r.cached[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.cached, id)
	ids := r.snapshotLocked()
	r.mu.Unlock()

	r.persist(ctx, ids)
}

func (r *Reconciler) snapshotLocked() []model.PlayerID {
	ids := make([]model.PlayerID, 0, len(r.cached))
	for id := range r.cached {
		ids = append(ids, id)
	}
	return ids
}

func (r *Reconciler) persist(ctx context.Context, ids []model.PlayerID) {
	if err := r.store.SaveCachedBans(ctx, ids); err != nil {
		r.logger.Error("failed to persist cached bans",
			slog.String("error", err.Error()),
		)
	}
}
