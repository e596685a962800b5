package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	executedRewards []model.RewardID
	cachedBans      []model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) SaveExecutedRewards(ctx context.Context, ids []model.RewardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executedRewards = slices.Clone(ids)
	return nil
}

func (s *Storage) LoadExecutedRewards(ctx context.Context) ([]model.RewardID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.executedRewards), nil
}

func (s *Storage) SaveCachedBans(ctx context.Context, ids []model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedBans = slices.Clone(ids)
	return nil
}

func (s *Storage) LoadCachedBans(ctx context.Context) ([]model.PlayerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cachedBans), nil
}
