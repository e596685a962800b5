// Package engine owns the reconciliation loop. One instance holds every
// mutable table (constructed at startup, torn down at shutdown) and drives
// two schedules: the sync cycle that fetches remote state and converges both
// sides, and the advert rotation. Host lifecycle events call into the same
// reconcilers between cycles to handle the immediate cases.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/services/adverts"
	"github.com/hubsync/hubsync/internal/services/bans"
	"github.com/hubsync/hubsync/internal/services/directory"
	"github.com/hubsync/hubsync/internal/services/groups"
	"github.com/hubsync/hubsync/internal/services/playtime"
	"github.com/hubsync/hubsync/internal/services/rewards"
	"github.com/hubsync/hubsync/internal/services/warnings"
)

// Config holds the engine's schedule settings
type Config struct {
	// SyncInterval is the period of the reconciliation cycle
	SyncInterval time.Duration
	// AdvertInterval is the period of the advert rotation
	AdvertInterval time.Duration
}

// DefaultConfig returns the default schedule
func DefaultConfig() Config {
	return Config{
		SyncInterval:   60 * time.Second,
		AdvertInterval: 180 * time.Second,
	}
}

// Engine is the reconciliation engine
type Engine struct {
	cfg    Config
	remote *remote.Client
	host   host.Host
	logger *slog.Logger

	directory *directory.Service
	bans      *bans.Reconciler
	groups    *groups.Reconciler
	rewards   *rewards.Dispatcher
	playtime  *playtime.Tracker
	adverts   *adverts.Rotation
	warnings  *warnings.Service

	// bundleID is discovered at startup and refreshed from heartbeat
	// responses; only the cycle goroutine touches it after Start
	bundleID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an engine over the given collaborators
func New(
	cfg Config,
	remoteClient *remote.Client,
	h host.Host,
	dir *directory.Service,
	banRec *bans.Reconciler,
	groupRec *groups.Reconciler,
	rewardDisp *rewards.Dispatcher,
	playtimeTracker *playtime.Tracker,
	advertRotation *adverts.Rotation,
	warningSvc *warnings.Service,
	logger *slog.Logger,
) *Engine {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultConfig().SyncInterval
	}
	if cfg.AdvertInterval <= 0 {
		cfg.AdvertInterval = DefaultConfig().AdvertInterval
	}

	return &Engine{
		cfg:       cfg,
		remote:    remoteClient,
		host:      h,
		directory: dir,
		bans:      banRec,
		groups:    groupRec,
		rewards:   rewardDisp,
		playtime:  playtimeTracker,
		adverts:   advertRotation,
		warnings:  warningSvc,
		logger:    logger,
	}
}

// Start connects to the remote service, restores persisted state, registers
// the host event hooks and launches the periodic loops. It fails only when
// the server descriptor cannot be fetched, since nothing can be scoped
// without a bundle id.
func (e *Engine) Start(ctx context.Context) error {
	info, err := e.remote.GetServer(ctx)
	if err != nil {
		return fmt.Errorf("cannot connect to remote service: %w", err)
	}
	e.bundleID = info.ServerBundleID
	e.remote.SetServerBundle(e.bundleID)

	e.logger.Info("connected to remote service",
		slog.String("serverbundle_id", e.bundleID),
	)

	e.ensurePlaytimeDefinition(ctx)

	e.bans.Load(ctx)
	e.rewards.Load(ctx)

	e.ctx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))

	e.host.SetEvents(host.Events{
		OnConnect:      e.handleConnect,
		OnDisconnect:   e.handleDisconnect,
		OnRespawn:      e.handleRespawn,
		OnDeath:        e.handleDeath,
		OnBanned:       e.handleBanned,
		OnUnbanned:     e.handleUnbanned,
		OnGroupAdded:   e.handleGroupAdded,
		OnGroupRemoved: e.handleGroupRemoved,
	})

	// Players already connected when the agent starts get the same
	// treatment as a fresh connect
	for _, p := range e.host.ConnectedPlayers() {
		e.handleConnect(p)
	}

	e.wg.Add(2)
	go e.runSyncLoop()
	go e.runAdvertLoop()

	return nil
}

// Stop cancels the loops, waits for them to finish and flushes any
// accumulated playtime. In-flight remote operations are abandoned; partial
// effects self-heal on the next cycle after restart.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	e.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e.playtime.FlushAll(ctx, true)

	e.logger.Info("engine stopped")
}

// Warn issues a warning for a player on the remote service
func (e *Engine) Warn(ctx context.Context, playerID model.PlayerID, reason string) error {
	return e.warnings.Warn(ctx, playerID, reason)
}

func (e *Engine) runSyncLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.SyncInterval)
	defer ticker.Stop()

	e.RunCycle(e.ctx)
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.RunCycle(e.ctx)
		}
	}
}

func (e *Engine) runAdvertLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.AdvertInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.adverts.Next()
		}
	}
}

// RunCycle performs one reconciliation pass. Normally driven by Start's
// schedule; callable directly to force an immediate sync. Each step logs its
// own failures and the pass continues; a failed step leaves both sides
// unchanged until the next cycle.
func (e *Engine) RunCycle(ctx context.Context) {
	players := e.host.ConnectedPlayers()
	online := e.directory.Online(players)

	e.warnings.Notify(ctx, online)

	e.rewards.FetchAndRun(ctx, online)

	if remoteBans, err := e.remote.FetchBans(ctx); err != nil {
		e.logger.Error("failed to fetch remote bans",
			slog.String("error", err.Error()),
		)
	} else {
		e.bans.Reconcile(ctx, remoteBans)
	}

	if remoteGroups, err := e.remote.FetchGroups(ctx); err != nil {
		e.logger.Error("failed to fetch groups",
			slog.String("error", err.Error()),
		)
	} else {
		e.groups.UpdateDefinitions(e.bundleID, remoteGroups)
		e.groups.SyncAll(ctx, online)
	}

	if ads, err := e.remote.FetchAdverts(ctx); err != nil {
		e.logger.Error("failed to fetch adverts",
			slog.String("error", err.Error()),
		)
	} else {
		e.adverts.Set(ads)
	}

	e.heartbeat(ctx, online)

	e.playtime.FlushAll(ctx, false)
}

func (e *Engine) heartbeat(ctx context.Context, online []*model.User) {
	activities := make([]model.UserActivity, 0, len(online))
	for _, u := range online {
		activities = append(activities, model.UserActivity{
			UserID: u.ID,
			Extra:  map[string]string{},
		})
	}

	info, err := e.remote.PatchServer(ctx, model.Heartbeat{
		UsersMax:       e.host.MaxPlayers(),
		UsersCurrent:   e.host.PlayerCount(),
		UserActivities: activities,
		IsAlive:        true,
	})
	if err != nil {
		e.logger.Error("failed to patch server",
			slog.String("error", err.Error()),
		)
		return
	}

	if info.ServerBundleID != "" && info.ServerBundleID != e.bundleID {
		e.bundleID = info.ServerBundleID
		e.remote.SetServerBundle(e.bundleID)
	}
}

func (e *Engine) handleConnect(p host.Player) {
	e.playtime.TrackConnect(p.ID)

	user, err := e.directory.GetOrCreate(e.ctx, p.ID)
	if err != nil {
		e.logger.Error("failed to load remote user",
			slog.String("player_id", string(p.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	if fetched, err := e.remote.GetUserRewards(e.ctx, user.ID); err != nil {
		if !errors.Is(err, context.Canceled) {
			e.logger.Error("failed to fetch user rewards",
				slog.String("user_id", string(user.ID)),
				slog.String("error", err.Error()),
			)
		}
	} else if list, ok := fetched[p.ID]; ok && len(list) > 0 {
		e.rewards.SetPlayerRewards(p.ID, list)
	}

	e.rewards.Execute(e.ctx, []model.EventName{model.EventConnect, model.EventSpawn}, p.ID)

	e.groups.Sync(e.ctx, user)
}

func (e *Engine) handleDisconnect(p host.Player) {
	e.playtime.FlushPlayer(e.ctx, p.ID, true)

	e.rewards.ExecuteFor(e.ctx, []model.EventName{model.EventDisconnect}, p)

	e.directory.Forget(p.ID)
}

func (e *Engine) handleRespawn(p host.Player) {
	e.rewards.Execute(e.ctx, []model.EventName{model.EventSpawn}, p.ID)
}

func (e *Engine) handleDeath(p host.Player) {
	e.rewards.Execute(e.ctx, []model.EventName{model.EventDeath}, p.ID)
}

func (e *Engine) handleBanned(id model.PlayerID, reason string) {
	e.bans.HandleHostBan(e.ctx, id, reason)
}

func (e *Engine) handleUnbanned(id model.PlayerID) {
	e.bans.HandleHostUnban(e.ctx, id)
}

func (e *Engine) handleGroupAdded(id model.PlayerID, group string) {
	e.groups.HandleGroupAdded(e.ctx, id, group)
}

func (e *Engine) handleGroupRemoved(id model.PlayerID, group string) {
	e.groups.HandleGroupRemoved(e.ctx, id, group)
}

// ensurePlaytimeDefinition resolves the playtime attribute definition,
// creating it when absent. Failure disables playtime submission for this run
// but is not fatal.
func (e *Engine) ensurePlaytimeDefinition(ctx context.Context) {
	id, err := e.remote.GetPlaytimeDefinition(ctx)
	if errors.Is(err, model.ErrDefinitionNotFound) {
		id, err = e.remote.CreatePlaytimeDefinition(ctx)
	}
	if err != nil {
		e.logger.Error("failed to resolve playtime definition",
			slog.String("error", err.Error()),
		)
		return
	}
	e.playtime.SetDefinitionID(id)
}
