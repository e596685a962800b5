// Package groups maps remote group definitions onto local permission groups
// and keeps a user's memberships in sync. A backlog suppression set marks
// mutations the reconciler itself issued, so the host's echoed group-change
// event is not mistaken for an externally-initiated change and pushed back
// to the remote service.
package groups

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/services/directory"
)

// Reconciler synchronizes group memberships in both directions
type Reconciler struct {
	remote    *remote.Client
	host      host.Host
	directory *directory.Service
	logger    *slog.Logger

	mu sync.Mutex
	// mapped is lowercase local-group-name -> owning remote group,
	// rebuilt every cycle from the fetched definitions
	mapped map[string]model.Group
	// backlog entries are write-once, consume-once: inserted before a
	// local mutation, removed by the echoed host event
	backlog map[string]struct{}
}

// New creates a new group reconciler
func New(remoteClient *remote.Client, h host.Host, dir *directory.Service, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		remote:    remoteClient,
		host:      h,
		directory: dir,
		logger:    logger,
		mapped:    make(map[string]model.Group),
		backlog:   make(map[string]struct{}),
	}
}

// UpdateDefinitions rebuilds the local-name mapping from the fetched group
// definitions, keeping only mappings unscoped or scoped to the given bundle.
// On name collisions the first insertion per cycle wins.
func (r *Reconciler) UpdateDefinitions(bundleID string, groups []model.Group) {
	mapped := make(map[string]model.Group)
	for _, group := range groups {
		for _, mapping := range group.Mappings {
			if mapping.ServerBundleID != "" && mapping.ServerBundleID != bundleID {
				continue
			}
			name := strings.ToLower(mapping.Name)
			if _, ok := mapped[name]; !ok {
				mapped[name] = group
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapped = mapped
}

// Sync fetches the user's remote memberships and converges the player's
// local groups to match: missing target groups are created and joined,
// local groups that map to a known remote group but are no longer in the
// target set are removed. Every local mutation records a backlog entry
// first.
func (r *Reconciler) Sync(ctx context.Context, user *model.User) {
	userGroups, err := r.remote.GetUserGroups(ctx, user.ID)
	if err != nil {
		r.logger.Error("failed to fetch memberships",
			slog.String("user_id", string(user.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	target := make(map[string]struct{})
	for _, group := range userGroups {
		for _, mapping := range group.Mappings {
			name := strings.ToLower(mapping.Name)
			target[name] = struct{}{}

			if !r.host.GroupExists(name) {
				if err := r.host.CreateGroup(name, mapping.Name, group.PermissionLevel); err != nil {
					r.logger.Error("failed to create local group",
						slog.String("group", name),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}

	player := user.Identifier

	// Join target groups the player is missing
	for name := range target {
		if !r.host.GroupExists(name) || r.host.PlayerInGroup(player, name) {
			continue
		}
		r.backlogAdd(model.BacklogKey(player, name, model.GroupAdd))
		if err := r.host.AddPlayerToGroup(player, name); err != nil {
			r.logger.Error("failed to add player to local group",
				slog.String("player_id", string(player)),
				slog.String("group", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.logger.Info("added player to local group",
			slog.String("player_id", string(player)),
			slog.String("group", name),
		)
	}

	// Leave mapped groups no longer in the target set. Unmapped local
	// groups are none of our business.
	for _, name := range r.host.PlayerGroups(player) {
		name = strings.ToLower(name)
		if _, ok := target[name]; ok {
			continue
		}
		if _, known := r.lookupMapped(name); !known {
			continue
		}
		r.backlogAdd(model.BacklogKey(player, name, model.GroupRemove))
		if err := r.host.RemovePlayerFromGroup(player, name); err != nil {
			r.logger.Error("failed to remove player from local group",
				slog.String("player_id", string(player)),
				slog.String("group", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.logger.Info("removed player from local group",
			slog.String("player_id", string(player)),
			slog.String("group", name),
		)
	}
}

// SyncAll runs Sync for every given user
func (r *Reconciler) SyncAll(ctx context.Context, users []*model.User) {
	for _, user := range users {
		r.Sync(ctx, user)
	}
}

// HandleGroupAdded processes a host group-added event. If the backlog holds
// a matching suppression entry the event is the reconciler's own action
// echoing back and is consumed silently; otherwise the externally-initiated
// change is pushed to the remote service.
func (r *Reconciler) HandleGroupAdded(ctx context.Context, playerID model.PlayerID, group string) {
	if r.backlogConsume(model.BacklogKey(playerID, strings.ToLower(group), model.GroupAdd)) {
		return
	}

	user, ok := r.directory.Lookup(playerID)
	if !ok {
		return
	}
	r.addRemoteMembership(ctx, user, group)
}

// HandleGroupRemoved processes a host group-removed event, mirroring
// HandleGroupAdded
func (r *Reconciler) HandleGroupRemoved(ctx context.Context, playerID model.PlayerID, group string) {
	if r.backlogConsume(model.BacklogKey(playerID, strings.ToLower(group), model.GroupRemove)) {
		return
	}

	user, ok := r.directory.Lookup(playerID)
	if !ok {
		return
	}
	r.removeRemoteMembership(ctx, user, group)
}

func (r *Reconciler) addRemoteMembership(ctx context.Context, user *model.User, group string) {
	def, ok := r.lookupMapped(strings.ToLower(group))
	if !ok {
		r.logger.Warn("no group mapping for local group",
			slog.String("group", group),
		)
		return
	}

	if _, err := r.remote.AddMembership(ctx, user.ID, def.ID); err != nil {
		r.logger.Error("failed to add remote membership",
			slog.String("user_id", string(user.ID)),
			slog.String("group", def.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	r.logger.Info("added remote group membership",
		slog.String("user", user.Username),
		slog.String("group", def.Name),
	)
}

func (r *Reconciler) removeRemoteMembership(ctx context.Context, user *model.User, group string) {
	def, ok := r.lookupMapped(strings.ToLower(group))
	if !ok {
		r.logger.Warn("no group mapping for local group",
			slog.String("group", group),
		)
		return
	}

	if _, err := r.remote.RemoveMembershipByGroup(ctx, user.ID, def.ID); err != nil {
		r.logger.Error("failed to remove remote membership",
			slog.String("user_id", string(user.ID)),
			slog.String("group", def.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	r.logger.Info("ended remote group membership",
		slog.String("user", user.Username),
		slog.String("group", def.Name),
	)
}

func (r *Reconciler) lookupMapped(name string) (model.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.mapped[name]
	return g, ok
}

func (r *Reconciler) backlogAdd(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backlog[key] = struct{}{}
}

func (r *Reconciler) backlogConsume(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backlog[key]; !ok {
		return false
	}
	delete(r.backlog, key)
	return true
}
