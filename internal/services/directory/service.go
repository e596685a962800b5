// Package directory caches the remote user record for each connected player.
// Entries are created lazily on first use and purged on disconnect, so a
// cache entry is authoritative only for that session.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
)

// Service is the user directory cache
type Service struct {
	remote *remote.Client
	host   host.Host
	logger *slog.Logger

	mu    sync.RWMutex
	users map[model.PlayerID]*model.User

	// flight collapses concurrent fetch/create calls for the same player,
	// so two near-simultaneous connect events cannot create two remote
	// user records
	flight singleflight.Group
}

// New creates a new directory service
func New(remoteClient *remote.Client, h host.Host, logger *slog.Logger) *Service {
	return &Service{
		remote: remoteClient,
		host:   h,
		logger: logger,
		users:  make(map[model.PlayerID]*model.User),
	}
}

// GetOrCreate returns the cached remote user for a player, fetching it from
// the remote service on a miss and creating the record if it does not exist
// yet.
func (s *Service) GetOrCreate(ctx context.Context, playerID model.PlayerID) (*model.User, error) {
	s.mu.RLock()
	user, ok := s.users[playerID]
	s.mu.RUnlock()
	if ok {
		return user, nil
	}

	v, err, _ := s.flight.Do(string(playerID), func() (any, error) {
		user, err := s.remote.GetUser(ctx, playerID)
		if errors.Is(err, model.ErrUserNotFound) {
			username := ""
			if p, ok := s.host.FindPlayer(playerID); ok {
				username = p.Name
			}
			user, err = s.remote.CreateUser(ctx, playerID, username)
			if err == nil {
				s.logger.Info("created remote user",
					slog.String("player_id", string(playerID)),
					slog.String("user_id", string(user.ID)),
				)
			}
		}
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.users[playerID] = user
		s.mu.Unlock()

		return user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.User), nil
}

// Lookup returns the cached user for a player, if any
func (s *Service) Lookup(playerID model.PlayerID) (*model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[playerID]
	return user, ok
}

// Forget drops a player's cache entry on disconnect
func (s *Service) Forget(playerID model.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, playerID)
}

// Online returns the cached users for the given connected players. Players
// whose directory entry has not loaded yet are skipped.
func (s *Service) Online(players []host.Player) []*model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.User, 0, len(players))
	for _, p := range players {
		if user, ok := s.users[p.ID]; ok {
			out = append(out, user)
		}
	}
	return out
}
