// Package rewards executes remote reward grants on local game events and
// reports execution back to the remote service exactly once per reward. The
// executed-but-unconfirmed id list is persisted on every mutation: it is the
// source of truth for "already executed locally, not yet confirmed remotely"
// across restarts.
package rewards

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/storage"
)

// Dispatcher polls pending reward grants and runs their actions
type Dispatcher struct {
	remote *remote.Client
	host   host.Host
	store  storage.Store
	logger *slog.Logger

	mu      sync.Mutex
	pending map[model.PlayerID][]*model.AppliedReward

	// executed locally, not yet confirmed by the remote service; persisted
	executed []model.RewardID
	// confirmed by the remote service; session-scoped guard
	executedSent map[model.RewardID]struct{}
}

// New creates a new reward dispatcher
func New(remoteClient *remote.Client, h host.Host, store storage.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		remote:       remoteClient,
		host:         h,
		store:        store,
		logger:       logger,
		pending:      make(map[model.PlayerID][]*model.AppliedReward),
		executedSent: make(map[model.RewardID]struct{}),
	}
}

// Load restores the executed-rewards list from storage. An unreadable
// document is logged and replaced with an empty list rather than failing
// startup.
func (d *Dispatcher) Load(ctx context.Context) {
	ids, err := d.store.LoadExecutedRewards(ctx)
	if err != nil {
		d.logger.Error("failed to load executed rewards, starting empty",
			slog.String("error", err.Error()),
		)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = ids
}

// FetchAndRun replaces the pending-rewards table with the open grants for
// the given online users, then triggers the synthetic direct events so
// rewards without a specific game trigger fire immediately.
func (d *Dispatcher) FetchAndRun(ctx context.Context, online []*model.User) {
	if len(online) == 0 {
		return
	}

	userIDs := make([]model.UserID, 0, len(online))
	for _, u := range online {
		userIDs = append(userIDs, u.ID)
	}

	fetched, err := d.remote.FetchRewards(ctx, userIDs)
	if err != nil {
		d.logger.Error("failed to fetch rewards",
			slog.String("error", err.Error()),
		)
		return
	}

	d.mu.Lock()
	d.pending = fetched
	hasRewards := len(fetched) > 0
	d.mu.Unlock()

	if hasRewards {
		d.Execute(ctx, []model.EventName{model.EventDirect, model.EventDisable}, "")
	}
}

// SetPlayerRewards replaces one player's pending rewards, used on connect
// before the next full fetch
func (d *Dispatcher) SetPlayerRewards(playerID model.PlayerID, rewards []*model.AppliedReward) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[playerID] = rewards
}

// Execute runs the pending rewards whose trigger is in the given event set.
// With an empty playerID the whole pending table is the candidate set, which
// is only permitted when every event is a synthetic direct event. Rewards
// flagged "once" join the persisted executed list immediately, before remote
// confirmation, so they cannot re-fire within the same poll window.
func (d *Dispatcher) Execute(ctx context.Context, events []model.EventName, playerID model.PlayerID) {
	if len(events) == 0 {
		return
	}

	candidates := d.candidates(events, playerID)

	for pid, playerRewards := range candidates {
		player, ok := d.host.FindPlayer(pid)
		if !ok {
			continue
		}
		d.executeList(ctx, events, player, playerRewards)
	}

	d.FlushExecuted(ctx)
}

// ExecuteFor runs one player's pending rewards for the given event set,
// using the supplied player record. This is the disconnect path, where the
// host can no longer resolve the player by id.
func (d *Dispatcher) ExecuteFor(ctx context.Context, events []model.EventName, player host.Player) {
	d.mu.Lock()
	playerRewards := slices.Clone(d.pending[player.ID])
	d.mu.Unlock()

	d.executeList(ctx, events, player, playerRewards)
	d.FlushExecuted(ctx)
}

func (d *Dispatcher) executeList(ctx context.Context, events []model.EventName, player host.Player, playerRewards []*model.AppliedReward) {
	for _, applied := range playerRewards {
		if d.alreadyExecuted(applied.ID) {
			continue
		}
		if !slices.Contains(events, applied.Reward.OnEvent) {
			continue
		}

		d.run(player, applied)

		if applied.Reward.Once {
			d.markExecuted(ctx, applied.ID)
		}
	}
}

// FlushExecuted reports every executed-but-unconfirmed reward id to the
// remote service, one at a time. On success the id moves from the executed
// list to the executed-and-sent set and the shrunken list is persisted.
func (d *Dispatcher) FlushExecuted(ctx context.Context) {
	d.mu.Lock()
	ids := slices.Clone(d.executed)
	d.mu.Unlock()

	for _, id := range ids {
		confirmed, err := d.remote.MarkRewardExecuted(ctx, id)
		if err != nil {
			d.logger.Error("failed to report executed reward",
				slog.String("reward_id", string(id)),
				slog.String("error", err.Error()),
			)
			continue
		}

		d.mu.Lock()
		d.executedSent[confirmed.ID] = struct{}{}
		d.executed = slices.DeleteFunc(d.executed, func(e model.RewardID) bool {
			return e == confirmed.ID
		})
		snapshot := slices.Clone(d.executed)
		d.mu.Unlock()

		d.persist(ctx, snapshot)
	}
}

func (d *Dispatcher) candidates(events []model.EventName, playerID model.PlayerID) map[model.PlayerID][]*model.AppliedReward {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[model.PlayerID][]*model.AppliedReward)

	if playerID == "" {
		// All players' rewards may only run for trigger-less events
		for _, ev := range events {
			if !ev.Direct() {
				return out
			}
		}
		for pid, rs := range d.pending {
			out[pid] = slices.Clone(rs)
		}
		return out
	}

	if rs, ok := d.pending[playerID]; ok {
		out[playerID] = slices.Clone(rs)
	}
	return out
}

// run dispatches one reward's action. Unsupported kinds are logged and left
// pending so a future handler can pick them up.
func (d *Dispatcher) run(player host.Player, applied *model.AppliedReward) {
	reward := applied.Reward

	switch reward.Kind {
	case model.RewardCommand:
		d.runCommand(player, applied)
		d.logger.Info("reward executed",
			slog.String("reward", reward.Name),
			slog.String("kind", string(reward.Kind)),
			slog.String("player", player.Name),
			slog.String("player_id", string(player.ID)),
		)
	default:
		d.logger.Warn("no implementation for reward kind",
			slog.String("reward", reward.Name),
			slog.String("kind", string(reward.Kind)),
		)
	}
}

func (d *Dispatcher) runCommand(player host.Player, applied *model.AppliedReward) {
	command := strings.ReplaceAll(applied.Reward.Data["command"], "\n", "|")
	command = renderPlaceholders(command, player, applied)
	if command == "" {
		return
	}

	for _, part := range strings.Split(command, "|") {
		if err := d.host.RunCommand(part); err != nil {
			d.logger.Error("failed to run reward command",
				slog.String("command", part),
				slog.String("error", err.Error()),
			)
		}
	}
}

// renderPlaceholders substitutes the command template's tokens. All are
// literal substring replacements; tokens do not overlap so order does not
// matter.
func renderPlaceholders(command string, player host.Player, applied *model.AppliedReward) string {
	purchaseAmount := "-"
	packetTitle := ""
	if applied.AppliedPacket != nil {
		if applied.AppliedPacket.Purchase != nil {
			purchaseAmount = applied.AppliedPacket.Purchase.AmountText
		}
		packetTitle = applied.AppliedPacket.Packet.Title
	}

	replacer := strings.NewReplacer(
		"%nick%", player.Name,
		"%user_id%", string(player.ID),
		"%player_id%", string(player.ID),
		"%steamid64%", string(player.ID),
		"%applied_packet_id%", applied.AppliedPacketID,
		"%purchase_amount%", purchaseAmount,
		"%packet_title%", packetTitle,
	)
	return replacer.Replace(command)
}

func (d *Dispatcher) alreadyExecuted(id model.RewardID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.executedSent[id]; ok {
		return true
	}
	return slices.Contains(d.executed, id)
}

func (d *Dispatcher) markExecuted(ctx context.Context, id model.RewardID) {
	d.mu.Lock()
	d.executed = append(d.executed, id)
	snapshot := slices.Clone(d.executed)
	d.mu.Unlock()

	d.persist(ctx, snapshot)
}

func (d *Dispatcher) persist(ctx context.Context, ids []model.RewardID) {
	if err := d.store.SaveExecutedRewards(ctx, ids); err != nil {
		d.logger.Error("failed to persist executed rewards",
			slog.String("error", err.Error()),
		)
	}
}
