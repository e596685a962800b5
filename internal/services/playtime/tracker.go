// Package playtime tracks per-player session time and periodically flushes
// accumulated hours to the remote service as a user attribute.
package playtime

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hubsync/hubsync/internal/dependencies/clock"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/services/directory"
)

const (
	// minHours below this a flush submits nothing; the sub-threshold
	// remainder is dropped, not carried into the next baseline
	minHours = 0.1

	// flushCooldown limits full flushes to once an hour
	flushCooldown = time.Hour
)

// Tracker accumulates session playtime
type Tracker struct {
	remote    *remote.Client
	directory *directory.Service
	clock     clock.Clock
	logger    *slog.Logger

	mu           sync.Mutex
	definitionID string
	baselines    map[model.PlayerID]time.Time
	lastFlush    time.Time
}

// New creates a new playtime tracker
func New(remoteClient *remote.Client, dir *directory.Service, clk clock.Clock, logger *slog.Logger) *Tracker {
	return &Tracker{
		remote:    remoteClient,
		directory: dir,
		clock:     clk,
		logger:    logger,
		baselines: make(map[model.PlayerID]time.Time),
	}
}

// SetDefinitionID records the remote attribute definition id playtime is
// submitted under. Set once during startup.
func (t *Tracker) SetDefinitionID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.definitionID = id
}

// TrackConnect records the session baseline for a player if none exists
func (t *Tracker) TrackConnect(playerID model.PlayerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.baselines[playerID]; !ok {
		t.baselines[playerID] = t.clock.Now()
	}
}

// FlushPlayer submits one player's accumulated time. With drop set the
// baseline entry is removed on success (disconnect); otherwise it resets to
// now (periodic flush).
func (t *Tracker) FlushPlayer(ctx context.Context, playerID model.PlayerID, drop bool) {
	t.mu.Lock()
	baseline, ok := t.baselines[playerID]
	definitionID := t.definitionID
	t.mu.Unlock()
	if !ok || definitionID == "" {
		return
	}

	sent, err := t.send(ctx, definitionID, playerID, baseline)
	if err != nil {
		t.logger.Error("failed to send playtime",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case drop:
		// Disconnect: the entry goes away regardless; sub-threshold
		// time is lost
		delete(t.baselines, playerID)
	case sent:
		t.baselines[playerID] = t.clock.Now()
	}
}

// FlushAll submits every tracked player's accumulated time, at most once per
// cooldown period unless forced (shutdown)
func (t *Tracker) FlushAll(ctx context.Context, force bool) {
	t.mu.Lock()
	now := t.clock.Now()
	if !force && !t.lastFlush.IsZero() && now.Sub(t.lastFlush) < flushCooldown {
		t.mu.Unlock()
		return
	}
	t.lastFlush = now
	definitionID := t.definitionID

	players := make([]model.PlayerID, 0, len(t.baselines))
	for id := range t.baselines {
		players = append(players, id)
	}
	t.mu.Unlock()

	if definitionID == "" {
		return
	}

	t.logger.Info("sending playtime to remote service",
		slog.Int("players", len(players)),
	)

	for _, id := range players {
		t.FlushPlayer(ctx, id, false)
	}
}

// send submits the elapsed hours since baseline, rounded to two decimals.
// Sessions under the minimum threshold submit nothing.
func (t *Tracker) send(ctx context.Context, definitionID string, playerID model.PlayerID, baseline time.Time) (bool, error) {
	hours := t.clock.Now().Sub(baseline).Hours()
	if hours < minHours {
		return false, nil
	}
	hours = math.Round(hours*100) / 100

	user, ok := t.directory.Lookup(playerID)
	if !ok {
		return false, nil
	}

	if err := t.remote.SendPlaytime(ctx, definitionID, user.ID, hours); err != nil {
		return false, err
	}
	return true, nil
}
