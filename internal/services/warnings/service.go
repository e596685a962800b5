// Package warnings surfaces remote warnings to affected players and lets
// administrators issue new ones.
package warnings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/services/directory"
)

// Service fetches and creates warnings
type Service struct {
	remote    *remote.Client
	host      host.Host
	directory *directory.Service
	logger    *slog.Logger

	mu sync.Mutex
	// notified warning ids; in-memory only, so a restart re-notifies,
	// which is harmless
	notified map[string]struct{}
}

// New creates a new warnings service
func New(remoteClient *remote.Client, h host.Host, dir *directory.Service, logger *slog.Logger) *Service {
	return &Service{
		remote:    remoteClient,
		host:      h,
		directory: dir,
		logger:    logger,
		notified:  make(map[string]struct{}),
	}
}

// Notify fetches the active warnings for each online user and messages the
// player about any not yet announced this session
func (s *Service) Notify(ctx context.Context, online []*model.User) {
	for _, user := range online {
		warnings, err := s.remote.FetchUserWarnings(ctx, user.ID)
		if err != nil {
			s.logger.Error("failed to fetch warnings",
				slog.String("user_id", string(user.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, w := range warnings {
			if !w.Active || s.seen(w.ID) {
				continue
			}

			msg := fmt.Sprintf("You have received a warning: %s", w.Reason)
			if err := s.host.MessagePlayer(user.Identifier, msg); err != nil {
				continue
			}
			s.markSeen(w.ID)
		}
	}
}

// Warn records a warning against a player on the remote service
func (s *Service) Warn(ctx context.Context, playerID model.PlayerID, reason string) error {
	user, err := s.directory.GetOrCreate(ctx, playerID)
	if err != nil {
		return fmt.Errorf("resolve player %s: %w", playerID, err)
	}

	if _, err := s.remote.CreateWarning(ctx, user.ID, reason); err != nil {
		return err
	}

	s.logger.Info("warning created",
		slog.String("player_id", string(playerID)),
		slog.String("reason", reason),
	)
	return nil
}

func (s *Service) seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notified[id]
	return ok
}

func (s *Service) markSeen(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[id] = struct{}{}
}
